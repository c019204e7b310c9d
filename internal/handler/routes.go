package handler

import (
	"github.com/GoPolymarket/calllog/internal/config"
	"github.com/GoPolymarket/calllog/internal/middleware"
	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
)

// Routes 注册 /v1 下的业务接口. 策略在注册时解析一次, 配置里的
// policies.<id> 可以覆盖默认值.
func Routes(r gin.IRouter, cfg *config.Config, in *service.Interceptor, tokens *TokenHandler, files *FileHandler) {
	createPolicy := cfg.Policy("create_token", model.Policy{
		Description:    "create token",
		Level:          model.LevelInfo,
		RedactLongText: true,
	})
	getPolicy := cfg.Policy("get_token", model.Policy{Description: "get token"})
	uploadPolicy := cfg.Policy("upload_file", model.Policy{Description: "upload file", Pretty: true})
	failPolicy := cfg.Policy("fail", model.Policy{Description: "always fails"})

	v1 := r.Group("/v1")
	{
		v1.POST("/tokens", middleware.Logged(in, createPolicy, CreateCall, tokens.BindCreate, tokens.Create))
		v1.GET("/tokens/:id", middleware.Logged(in, getPolicy, GetCall, tokens.BindGet, tokens.Get))
		v1.POST("/files", middleware.Logged(in, uploadPolicy, UploadCall, files.BindUpload, files.Upload))
		v1.GET("/fail", middleware.Logged(in, failPolicy, FailCall, middleware.NoArgs, Fail))
		v1.GET("/trace", Trace)
	}
}
