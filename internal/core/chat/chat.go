// Package chat defines the inbound message shape and the outbound chat
// transport used by the bot.
package chat

import "context"

// ParseMode selects how the transport formats outgoing text.
type ParseMode string

const (
	ParseModeNone     ParseMode = ""
	ParseModeMarkdown ParseMode = "Markdown"
	ParseModeHTML     ParseMode = "HTML"
)

// Message is an inbound text message. Messages without text are ignored.
type Message struct {
	ID        int    `json:"messageId"`
	ChatID    int64  `json:"chatId"`
	Text      string `json:"text"`
	FirstName string `json:"firstName,omitempty"`
}

// Transport delivers replies and presence signals to a chat.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, mode ParseMode) error
	SendTyping(ctx context.Context, chatID int64) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
