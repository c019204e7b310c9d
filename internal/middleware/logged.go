package middleware

import (
	"context"
	"net/http"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
)

// Binder extracts the argument values of an observed endpoint, in the order
// of Call.ParamNames. A binding error rejects the request before the call is
// observed.
type Binder func(c *gin.Context) ([]any, error)

// NoArgs binds nothing.
func NoArgs(*gin.Context) ([]any, error) { return nil, nil }

// Logged turns fn into a gin handler whose invocations are observed under
// policy. The result is rendered as JSON; errors go to the gin error chain
// for ErrorHandler. Panics propagate to gin's recovery.
func Logged[T any](in *service.Interceptor, policy *model.Policy, call model.Call, bind Binder, fn func(ctx context.Context, args []any) (T, error)) gin.HandlerFunc {
	if bind == nil {
		bind = NoArgs
	}
	return func(c *gin.Context) {
		args, err := bind(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		inv := call
		inv.Args = args
		out, err := service.Observe(c.Request.Context(), in, policy, inv, func(ctx context.Context) (T, error) {
			return fn(ctx, args)
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
