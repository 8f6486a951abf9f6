// Package bot turns inbound chat messages into command replies or agent
// turns. Per-chat turns are serialized through the processing flag in the
// user state store; different chats run concurrently.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/dyna/internal/core/agent"
	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/userstate"
	"github.com/rs/zerolog"
)

// DefaultTypingInterval refreshes the typing indicator before Telegram's
// five second display window lapses.
const DefaultTypingInterval = 4 * time.Second

// Result summarizes a handled message.
type Result struct {
	Success bool
	Label   string
}

// Bot handles inbound messages.
type Bot struct {
	router         *Router
	store          userstate.Store
	transport      chat.Transport
	runtime        agent.Runtime
	typingInterval time.Duration
}

// New creates a Bot. A non-positive typingInterval uses DefaultTypingInterval.
func New(store userstate.Store, transport chat.Transport, runtime agent.Runtime, typingInterval time.Duration) *Bot {
	if typingInterval <= 0 {
		typingInterval = DefaultTypingInterval
	}
	return &Bot{
		router:         NewRouter(store),
		store:          store,
		transport:      transport,
		runtime:        runtime,
		typingInterval: typingInterval,
	}
}

// Handle processes one inbound message. It never panics and never returns
// an error; failures are reported to the user and logged.
func (b *Bot) Handle(ctx context.Context, msg chat.Message) (res Result) {
	ctx = logging.WithChatID(ctx, msg.ChatID)
	log := logging.Component("bot").With().Ctx(ctx).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered while handling message")
			res = Result{Label: "Bot processing error"}
		}
	}()

	if msg.Text == "" {
		return Result{Success: true, Label: "Non-text message ignored"}
	}

	out := b.router.Route(ctx, msg)

	if out.SendToUser && out.Response != "" {
		b.send(ctx, log, msg.ChatID, out.Response)
	}
	if out.DeleteMessage {
		if err := b.transport.DeleteMessage(ctx, msg.ChatID, msg.ID); err != nil {
			log.Warn().Err(err).Int("message_id", msg.ID).Msg("delete message")
		}
	}
	if !out.NeedsAgent() {
		log.Debug().Str("outcome", out.Label).Msg("command handled")
		return Result{Success: out.Success, Label: out.Label}
	}

	return b.runTurn(ctx, log, msg)
}

// runTurn holds the processing flag for the duration of one agent turn.
func (b *Bot) runTurn(ctx context.Context, log zerolog.Logger, msg chat.Message) Result {
	if !b.store.TrySetProcessing(ctx, msg.ChatID) {
		b.send(ctx, log, msg.ChatID, ReplyLockFailed)
		return Result{Label: "Processing lock failed"}
	}

	stopTyping := startTyping(ctx, b.transport, msg.ChatID, b.typingInterval)
	defer func() {
		stopTyping()
		if !b.store.ClearProcessing(context.WithoutCancel(ctx), msg.ChatID) {
			log.Error().Msg("failed to clear processing flag")
		}
	}()

	token, _ := b.store.GetToken(ctx, msg.ChatID)

	start := time.Now()
	reply, err := b.invoke(ctx, msg, token)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("agent turn failed")

		text, ok := agent.UserMessage(err)
		if !ok {
			text = ReplyAgentFailed
		}
		b.send(ctx, log, msg.ChatID, text)
		return Result{Label: "AI processing error"}
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("agent turn complete")
	b.send(ctx, log, msg.ChatID, reply)
	return Result{Success: true, Label: "AI response sent successfully"}
}

// invoke converts a runtime panic into an error so the caller's cleanup
// and error reply still happen.
func (b *Bot) invoke(ctx context.Context, msg chat.Message, token string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()
	return b.runtime.Invoke(ctx, agent.SessionKey(msg.ChatID), msg.Text, token)
}

func (b *Bot) send(ctx context.Context, log zerolog.Logger, chatID int64, text string) {
	if err := b.transport.SendMessage(ctx, chatID, text, chat.ParseModeMarkdown); err != nil {
		log.Warn().Err(err).Msg("send message")
	}
}
