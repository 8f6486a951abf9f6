package agent

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hay-kot/dyna/internal/core/kv"
	"github.com/hay-kot/dyna/internal/integration/openai"
)

// Checkpoint is the stored conversation of one session.
type Checkpoint struct {
	Messages  []openai.Message `json:"messages"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// History persists conversation checkpoints in the KV store. Entries expire
// after ttl without activity; reading a checkpoint extends it.
type History struct {
	store *kv.TypedKV[Checkpoint]
	ttl   time.Duration
	limit int
}

// NewHistory returns a History keeping at most limit messages per session.
func NewHistory(store kv.KV, ttl time.Duration, limit int) *History {
	return &History{
		store: kv.Scoped[Checkpoint](store, "checkpoint"),
		ttl:   ttl,
		limit: limit,
	}
}

// Load returns the stored messages for sessionKey, or nil when there are none.
func (h *History) Load(ctx context.Context, sessionKey string) ([]openai.Message, error) {
	cp, err := h.store.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := h.store.SetTTL(ctx, sessionKey, cp, h.ttl); err != nil {
		return nil, err
	}
	return cp.Messages, nil
}

// Save stores messages for sessionKey, trimmed to the most recent window.
func (h *History) Save(ctx context.Context, sessionKey string, messages []openai.Message) error {
	cp := Checkpoint{
		Messages:  trim(messages, h.limit),
		UpdatedAt: time.Now(),
	}
	return h.store.SetTTL(ctx, sessionKey, cp, h.ttl)
}

// Clear removes the checkpoint for sessionKey.
func (h *History) Clear(ctx context.Context, sessionKey string) error {
	return h.store.Delete(ctx, sessionKey)
}

// trim keeps at most limit trailing messages. The window always starts at a
// user message so no tool result is separated from the call that produced it.
// When no user message falls inside the window the last user message is kept
// as the start, exceeding limit rather than dropping the latest exchange.
func trim(messages []openai.Message, limit int) []openai.Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	for start := len(messages) - limit; start < len(messages); start++ {
		if messages[start].Role == openai.RoleUser {
			return messages[start:]
		}
	}
	for start := len(messages) - limit - 1; start >= 0; start-- {
		if messages[start].Role == openai.RoleUser {
			return messages[start:]
		}
	}
	return messages
}
