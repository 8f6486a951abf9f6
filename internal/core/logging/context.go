package logging

import (
	"context"
)

type contextKey string

const (
	chatIDKey     contextKey = "chat_id"
	sessionKeyKey contextKey = "session_key"
	turnIDKey     contextKey = "turn_id"
)

// WithChatID adds a chat ID to the context.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// WithSessionKey adds the agent conversation key to the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyKey, key)
}

// WithTurnID adds the id of the current agent turn to the context.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnIDKey, turnID)
}

// GetChatID retrieves the chat ID from the context.
// The second return value is false if not present.
func GetChatID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(chatIDKey).(int64)
	return id, ok
}

// GetSessionKey retrieves the session key from the context.
// Returns empty string if not present.
func GetSessionKey(ctx context.Context) string {
	if key, ok := ctx.Value(sessionKeyKey).(string); ok {
		return key
	}
	return ""
}

// GetTurnID retrieves the turn ID from the context.
// Returns empty string if not present.
func GetTurnID(ctx context.Context) string {
	if id, ok := ctx.Value(turnIDKey).(string); ok {
		return id
	}
	return ""
}
