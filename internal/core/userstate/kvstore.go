package userstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hay-kot/dyna/internal/core/kv"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/rs/zerolog"
)

// TokenKey is the KV key holding a chat's credential.
func TokenKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:dynalist_token", chatID)
}

// ProcessingKey is the KV key of a chat's busy flag.
func ProcessingKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:processing", chatID)
}

// KVStore implements Store on top of a kv.KV.
type KVStore struct {
	kv  kv.KV
	ttl time.Duration
	log zerolog.Logger
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a Store. A ttl <= 0 uses DefaultProcessingTTL.
func NewKVStore(store kv.KV, ttl time.Duration) *KVStore {
	if ttl <= 0 {
		ttl = DefaultProcessingTTL
	}
	return &KVStore{
		kv:  store,
		ttl: ttl,
		log: logging.Component("userstate"),
	}
}

func (s *KVStore) SaveToken(ctx context.Context, chatID int64, token string) bool {
	if err := s.kv.Set(ctx, TokenKey(chatID), token); err != nil {
		s.log.Error().Ctx(ctx).Err(err).Int64("chat_id", chatID).Msg("save token")
		return false
	}
	return true
}

func (s *KVStore) GetToken(ctx context.Context, chatID int64) (string, bool) {
	var token string
	if err := s.kv.Get(ctx, TokenKey(chatID), &token); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error().Ctx(ctx).Err(err).Int64("chat_id", chatID).Msg("get token")
		}
		return "", false
	}
	return token, token != ""
}

func (s *KVStore) TrySetProcessing(ctx context.Context, chatID int64) bool {
	ok, err := s.kv.SetIfAbsent(ctx, ProcessingKey(chatID), "1", s.ttl)
	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Int64("chat_id", chatID).Msg("set processing flag")
		return false
	}
	return ok
}

func (s *KVStore) IsProcessing(ctx context.Context, chatID int64) bool {
	ok, err := s.kv.Has(ctx, ProcessingKey(chatID))
	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Int64("chat_id", chatID).Msg("check processing flag")
		return false
	}
	return ok
}

func (s *KVStore) ClearProcessing(ctx context.Context, chatID int64) bool {
	return s.delete(ctx, "clear processing flag", ProcessingKey(chatID))
}

func (s *KVStore) ClearConversation(ctx context.Context, chatID int64) bool {
	return s.delete(ctx, "clear conversation", ProcessingKey(chatID))
}

func (s *KVStore) ClearAll(ctx context.Context, chatID int64) bool {
	return s.delete(ctx, "clear user data", TokenKey(chatID), ProcessingKey(chatID))
}

// Status reports the chat's stored state with the token masked.
func (s *KVStore) Status(ctx context.Context, chatID int64) (Status, error) {
	st := Status{ChatID: chatID}

	var token string
	err := s.kv.Get(ctx, TokenKey(chatID), &token)
	switch {
	case err == nil:
		st.HasToken = token != ""
		st.MaskedToken = logging.Mask(token)
	case !errors.Is(err, sql.ErrNoRows):
		return Status{}, fmt.Errorf("read token: %w", err)
	}

	entry, err := s.kv.GetRaw(ctx, ProcessingKey(chatID))
	switch {
	case err == nil:
		st.Processing = true
		st.ProcessingExpires = entry.ExpiresAt
	case !errors.Is(err, sql.ErrNoRows):
		return Status{}, fmt.Errorf("read processing flag: %w", err)
	}

	return st, nil
}

func (s *KVStore) delete(ctx context.Context, op string, keys ...string) bool {
	if err := s.kv.Delete(ctx, keys...); err != nil {
		s.log.Error().Ctx(ctx).Err(err).Strs("keys", keys).Msg(op)
		return false
	}
	return true
}
