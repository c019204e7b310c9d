package middleware

import (
	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
	"github.com/gin-gonic/gin"
)

// errorResponse is an AppError plus the request's trace id, so a caller can
// quote the id that ties its failure to the call log.
type errorResponse struct {
	*apperrors.AppError
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error pushed with c.Error. Handlers that
// already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		appErr := apperrors.Wrap(c.Errors.Last().Err)
		traceID, _ := traceid.Current(ctx)

		// TRACE_ID 由 traceid.Handler 从 ctx 自动附加
		logFields := []any{
			"route", c.FullPath(),
			"method", c.Request.Method,
			"code", appErr.Type,
			"status", appErr.HTTPStatus,
		}
		if len(c.Errors) > 1 {
			logFields = append(logFields, "errors", len(c.Errors))
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(ctx, appErr, "call failed", logFields...)
		} else {
			logger.Get().WarnContext(ctx, "call rejected: "+appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, errorResponse{AppError: appErr, TraceID: traceID})
	}
}
