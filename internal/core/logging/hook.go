package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts chat_id, session_key and turn_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if chatID, ok := GetChatID(ctx); ok {
		e.Int64("chat_id", chatID)
	}

	if key := GetSessionKey(ctx); key != "" {
		e.Str("session_key", key)
	}

	if turnID := GetTurnID(ctx); turnID != "" {
		e.Str("turn_id", turnID)
	}
}
