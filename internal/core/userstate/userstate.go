// Package userstate holds per-chat credentials and the busy flag that
// serializes agent turns for a chat.
package userstate

import (
	"context"
	"time"
)

// DefaultProcessingTTL bounds how long a crashed turn can hold the busy flag.
const DefaultProcessingTTL = 180 * time.Second

// Store is the per-chat state contract. Failures are logged by the
// implementation and reported as false or absent; callers treat them as
// "unavailable right now".
type Store interface {
	// SaveToken upserts the outline API credential for a chat.
	SaveToken(ctx context.Context, chatID int64, token string) bool
	GetToken(ctx context.Context, chatID int64) (string, bool)
	// TrySetProcessing atomically sets the busy flag. It returns true only
	// for the caller that created it.
	TrySetProcessing(ctx context.Context, chatID int64) bool
	IsProcessing(ctx context.Context, chatID int64) bool
	ClearProcessing(ctx context.Context, chatID int64) bool
	// ClearConversation resets the chat's turn state and keeps the token.
	ClearConversation(ctx context.Context, chatID int64) bool
	// ClearAll removes the token and the busy flag.
	ClearAll(ctx context.Context, chatID int64) bool
}

// Status is a snapshot of a chat's state for diagnostics.
type Status struct {
	ChatID            int64      `json:"chatId"`
	HasToken          bool       `json:"hasToken"`
	MaskedToken       string     `json:"maskedToken,omitempty"`
	Processing        bool       `json:"processing"`
	ProcessingExpires *time.Time `json:"processingExpires,omitempty"`
}
