package handler

import (
	"context"
	"net/http"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
	"github.com/gin-gonic/gin"
)

// FailCall names the observed Fail endpoint.
var FailCall = model.Call{Scope: "handler", Name: "Fail"}

// Fail always reports an upstream failure; useful to see error records.
func Fail(context.Context, []any) (gin.H, error) {
	return nil, apperrors.NewUpstream("upstream ledger unavailable")
}

// Trace returns the request's correlation id. It is not observed.
func Trace(c *gin.Context) {
	id, _ := traceid.Current(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"trace_id": id})
}
