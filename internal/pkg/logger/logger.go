package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
)

// LevelTrace sits below debug and is used for the pipeline's own diagnostics.
const LevelTrace = slog.LevelDebug - 4

var (
	globalLogger   *slog.Logger
	globalRegistry *Registry
	once           sync.Once
)

// Spec describes one named logger.
type Spec struct {
	Level  string
	Format string // text | json
	Output string // stdout | stderr
}

// ParseLevel maps a level name onto slog levels. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger for spec writing to w. A nil w selects the writer named
// by spec.Output.
func New(spec Spec, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
		if strings.EqualFold(spec.Output, "stderr") {
			w = os.Stderr
		}
	}
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(spec.Level),
		ReplaceAttr: replaceLevel,
	}
	var handler slog.Handler
	if strings.EqualFold(spec.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(traceid.NewHandler(handler))
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// Init sets up the process-wide internal logger only.
func Init(level string) {
	Setup(level, nil)
}

// Setup initialises the internal logger and the named logger registry. Only
// the first call has any effect; the registry is read-only afterwards.
func Setup(level string, named map[string]Spec) {
	once.Do(func() {
		// Use JSON handler for production-ready structured logging
		globalLogger = New(Spec{Level: level, Format: "json"}, os.Stdout)
		slog.SetDefault(globalLogger)

		globalRegistry = NewRegistry(globalLogger, globalLogger)
		if _, ok := named[model.DefaultLoggerName]; !ok {
			_ = globalRegistry.Register(model.DefaultLoggerName, New(Spec{Level: "debug"}, nil))
		}
		for name, spec := range named {
			if err := globalRegistry.Register(name, New(spec, nil)); err != nil {
				globalLogger.Warn("skipping logger", "name", name, "error", err)
			}
		}
	})
}

// Get returns the global logger instance
func Get() *slog.Logger {
	// 未初始化时按 info 初始化, once 保证并发安全
	Init("info")
	return globalLogger
}

// Default returns the process-wide named logger registry.
func Default() *Registry {
	Init("info")
	return globalRegistry
}

// Resolve looks name up in the process-wide registry.
func Resolve(name string) *slog.Logger {
	return Default().Resolve(name)
}

// Helper functions for quick logging
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Trace logs at LevelTrace on l, skipping attribute evaluation when disabled.
func Trace(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	if l == nil {
		l = Get()
	}
	if !l.Enabled(ctx, LevelTrace) {
		return
	}
	l.Log(ctx, LevelTrace, msg, args...)
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

func LogError(ctx context.Context, err error, msg string, args ...any) {
	if err == nil {
		return
	}
	// Add error to attributes
	args = append(args, slog.String("error", err.Error()))
	Get().ErrorContext(ctx, msg, args...)
}
