package handler

import (
	"context"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	store *service.TokenStore
}

func NewTokenHandler(store *service.TokenStore) *TokenHandler {
	return &TokenHandler{store: store}
}

// CreateCall names the observed Create endpoint.
var CreateCall = model.Call{Scope: "handler.TokenHandler", Name: "Create", ParamNames: []string{"request"}}

func (h *TokenHandler) BindCreate(c *gin.Context) ([]any, error) {
	var req model.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.NewInvalidRequest(err.Error())
	}
	return []any{req}, nil
}

func (h *TokenHandler) Create(ctx context.Context, args []any) (*model.Token, error) {
	req := args[0].(model.TokenRequest)
	return h.store.Issue(ctx, req)
}

// GetCall names the observed Get endpoint.
var GetCall = model.Call{Scope: "handler.TokenHandler", Name: "Get", ParamNames: []string{"id"}}

func (h *TokenHandler) BindGet(c *gin.Context) ([]any, error) {
	return []any{c.Param("id")}, nil
}

func (h *TokenHandler) Get(ctx context.Context, args []any) (*model.Token, error) {
	return h.store.Get(ctx, args[0].(string))
}
