package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/calllog/internal/config"
	"github.com/GoPolymarket/calllog/internal/handler"
	"github.com/GoPolymarket/calllog/internal/middleware"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Loggers
	logger.Setup(cfg.Log.InternalLevel, cfg.Log.Specs())

	// 3. Initialize Logging Pipeline
	dispatcher := service.NewDispatcher(cfg.Dispatcher, logger.Get())
	recorder := service.NewRecorder(logger.Default(), service.NewSerializer(), service.NewEmitter(cfg.Log.Prefix, cfg.Log.Suffix))
	interceptor := service.NewInterceptor(dispatcher, recorder)

	// 4. Initialize Handlers
	tokenHandler := handler.NewTokenHandler(service.NewTokenStore(cfg.Server.MaxDailyTokens))
	fileHandler := handler.NewFileHandler()

	// 5. Setup Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "calllog"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	var limiter *rate.Limiter
	if cfg.Server.RateLimitQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitQPS), cfg.Server.RateLimitBurst)
	}
	api := r.Group("/")
	api.Use(middleware.RateLimitMiddleware(limiter))
	handler.Routes(api, cfg, interceptor, tokenHandler, fileHandler)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("calllog started", "port", cfg.Server.Port, "core_workers", dispatcher.Config().CoreWorkers, "max_workers", dispatcher.Config().MaxWorkers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// 请求全部结束后再排空日志队列
	drainCtx, drainCancel := context.WithTimeout(context.Background(), dispatcher.Config().DrainTimeout)
	defer drainCancel()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Warn("Log queue not fully drained", "error", err, "stats", dispatcher.Stats())
	}

	logger.Info("Server exiting")
}
