// Package telegram adapts the Telegram Bot API (via telego) to the chat
// transport and turns incoming updates into chat messages.
package telegram

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// maxMessageChars stays under Telegram's 4096 limit to leave room for the
// markup added when converting to HTML.
const maxMessageChars = 3900

// Options configures the bot client.
type Options struct {
	// APIServer overrides https://api.telegram.org, mainly for tests.
	APIServer string
	// HTTPClient replaces the default client.
	HTTPClient *http.Client
}

// Transport is a chat.Transport backed by a Telegram bot.
type Transport struct {
	bot *telego.Bot
}

var _ chat.Transport = (*Transport)(nil)

// New creates a Transport for the bot token.
func New(token string, opts Options) (*Transport, error) {
	botOpts := []telego.BotOption{telego.WithDiscardLogger()}
	if opts.APIServer != "" {
		botOpts = append(botOpts, telego.WithAPIServer(opts.APIServer))
	}
	if opts.HTTPClient != nil {
		botOpts = append(botOpts, telego.WithHTTPClient(opts.HTTPClient))
	}

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Transport{bot: bot}, nil
}

// Bot exposes the underlying client.
func (t *Transport) Bot() *telego.Bot {
	return t.bot
}

// SendMessage delivers text, split into chunks that fit a single Telegram
// message. Markdown is converted to Telegram HTML; a chunk the API rejects
// is resent as plain text.
func (t *Transport) SendMessage(ctx context.Context, chatID int64, text string, mode chat.ParseMode) error {
	log := logging.Component("telegram")

	for _, chunk := range splitMessage(text, maxMessageChars) {
		msg := tu.Message(tu.ID(chatID), chunk)
		switch mode {
		case chat.ParseModeMarkdown:
			msg.Text = markdownToHTML(chunk)
			msg.ParseMode = telego.ModeHTML
		case chat.ParseModeHTML:
			msg.ParseMode = telego.ModeHTML
		}

		_, err := t.bot.SendMessage(ctx, msg)
		if err != nil && msg.ParseMode != "" {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("formatted send failed, falling back to plain text")
			_, err = t.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), chunk))
		}
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// SendTyping shows the typing indicator for a few seconds.
func (t *Transport) SendTyping(ctx context.Context, chatID int64) error {
	if err := t.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil {
		return fmt.Errorf("send typing: %w", err)
	}
	return nil
}

// DeleteMessage removes a message from the chat.
func (t *Transport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := t.bot.DeleteMessage(ctx, tu.Delete(tu.ID(chatID), messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
