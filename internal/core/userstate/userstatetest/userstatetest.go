// Package userstatetest provides an in-memory userstate.Store for tests.
package userstatetest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hay-kot/dyna/internal/core/userstate"
	"github.com/hay-kot/dyna/pkg/kv"
)

// Store is an in-memory userstate.Store. Setting Fail makes every
// operation behave like a backend outage.
type Store struct {
	Fail atomic.Bool

	tokens     *kv.Store[int64, string]
	processing *kv.Store[int64, struct{}]
	ttl        time.Duration
}

var _ userstate.Store = (*Store)(nil)

// New returns an empty Store using the default processing TTL.
func New() *Store {
	return &Store{
		tokens:     kv.New[int64, string](),
		processing: kv.New[int64, struct{}](),
		ttl:        userstate.DefaultProcessingTTL,
	}
}

// WithClock replaces the time source of the busy flags.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.processing.WithClock(now)
	return s
}

func (s *Store) SaveToken(_ context.Context, chatID int64, token string) bool {
	if s.Fail.Load() {
		return false
	}
	s.tokens.Set(chatID, token)
	return true
}

func (s *Store) GetToken(_ context.Context, chatID int64) (string, bool) {
	if s.Fail.Load() {
		return "", false
	}
	return s.tokens.Get(chatID)
}

func (s *Store) TrySetProcessing(_ context.Context, chatID int64) bool {
	if s.Fail.Load() {
		return false
	}
	return s.processing.SetIfAbsent(chatID, struct{}{}, s.ttl)
}

func (s *Store) IsProcessing(_ context.Context, chatID int64) bool {
	if s.Fail.Load() {
		return false
	}
	_, ok := s.processing.Get(chatID)
	return ok
}

func (s *Store) ClearProcessing(_ context.Context, chatID int64) bool {
	if s.Fail.Load() {
		return false
	}
	s.processing.Delete(chatID)
	return true
}

func (s *Store) ClearConversation(ctx context.Context, chatID int64) bool {
	return s.ClearProcessing(ctx, chatID)
}

func (s *Store) ClearAll(_ context.Context, chatID int64) bool {
	if s.Fail.Load() {
		return false
	}
	s.tokens.Delete(chatID)
	s.processing.Delete(chatID)
	return true
}
