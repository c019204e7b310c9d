package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/apperrors"
	"github.com/google/uuid"
)

// TokenStore 内存中的令牌表, 并按 owner 统计当日签发量
type TokenStore struct {
	mu       sync.RWMutex
	tokens   map[string]*model.Token
	daily    map[string]int // Key: owner:YYYY-MM-DD
	maxDaily int
	now      func() time.Time
}

// NewTokenStore returns an empty store. maxDaily <= 0 disables the daily cap.
func NewTokenStore(maxDaily int) *TokenStore {
	return &TokenStore{
		tokens:   make(map[string]*model.Token),
		daily:    make(map[string]int),
		maxDaily: maxDaily,
		now:      time.Now,
	}
}

func (s *TokenStore) Issue(ctx context.Context, req model.TokenRequest) (*model.Token, error) {
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		return nil, apperrors.NewInvalidRequest("owner is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.makeKey(owner)
	if s.maxDaily > 0 && s.daily[key] >= s.maxDaily {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("daily token limit %d reached for %s", s.maxDaily, owner))
	}

	tok := &model.Token{
		ID:       uuid.NewString(),
		Owner:    owner,
		Scope:    req.Scope,
		IssuedAt: s.now().UTC(),
	}
	s.tokens[tok.ID] = tok
	s.daily[key]++
	return tok, nil
}

func (s *TokenStore) Get(ctx context.Context, id string) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "token not found", nil)
	}
	return tok, nil
}

func (s *TokenStore) makeKey(owner string) string {
	// 按 UTC 日期分割
	return owner + ":" + s.now().UTC().Format("2006-01-02")
}
