package bot

import (
	"context"
	"strings"
	"unicode"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/userstate"
)

// Outcome is the router's decision for one inbound message. The side-effect
// flags are advice for the caller; the router never sends or deletes.
type Outcome struct {
	Success bool
	// Label describes the outcome for logs.
	Label    string
	Response string
	// SendToUser means the message is fully handled by Response. When false
	// the message goes to the agent.
	SendToUser    bool
	DeleteMessage bool
}

// NeedsAgent reports whether the message must be escalated to the agent.
func (o Outcome) NeedsAgent() bool {
	return o.Success && !o.SendToUser
}

// Commands understood by the router.
const (
	CmdClear       = "/clear"
	CmdReset       = "/reset"
	CmdToken       = "/token"
	CmdTokenStatus = "/token_status"
	CmdStart       = "/start"
	CmdHelp        = "/help"
)

// Router classifies inbound messages.
type Router struct {
	store userstate.Store
}

// NewRouter creates a Router over the user state store.
func NewRouter(store userstate.Store) *Router {
	return &Router{store: store}
}

// Route decides how to handle msg. Commands are evaluated before the busy
// check so they work while a turn is running.
func (r *Router) Route(ctx context.Context, msg chat.Message) Outcome {
	cmd, arg := parseCommand(msg.Text)

	switch cmd {
	case CmdClear, CmdReset:
		r.store.ClearConversation(ctx, msg.ChatID)
		return Outcome{Success: true, Label: "History cleared", Response: ReplyHistoryCleared, SendToUser: true}
	case CmdToken:
		return r.saveToken(ctx, msg.ChatID, arg)
	case CmdTokenStatus:
		return r.tokenStatus(ctx, msg.ChatID)
	case CmdStart, CmdHelp:
		return Outcome{Success: true, Label: "Welcome sent", Response: replyWelcome(msg.FirstName), SendToUser: true}
	}

	if r.store.IsProcessing(ctx, msg.ChatID) {
		return Outcome{Success: true, Label: "Bot busy message sent", Response: ReplyBusy, SendToUser: true}
	}

	if _, ok := r.store.GetToken(ctx, msg.ChatID); !ok {
		return Outcome{Success: true, Label: "Unauthorized message sent", Response: ReplyAccessRequired, SendToUser: true}
	}

	return Outcome{Success: true, Label: "Ready for AI processing"}
}

func (r *Router) saveToken(ctx context.Context, chatID int64, token string) Outcome {
	if token == "" {
		return Outcome{Label: "No token provided", Response: ReplyTokenUsage, SendToUser: true}
	}

	// The command message holds the raw credential, so it is deleted even
	// when saving fails.
	if !r.store.SaveToken(ctx, chatID, token) {
		return Outcome{Label: "Token save failed", Response: ReplyTokenFailed, SendToUser: true, DeleteMessage: true}
	}
	return Outcome{Success: true, Label: "Token saved", Response: ReplyTokenSaved, SendToUser: true, DeleteMessage: true}
}

func (r *Router) tokenStatus(ctx context.Context, chatID int64) Outcome {
	token, ok := r.store.GetToken(ctx, chatID)
	if !ok {
		return Outcome{Success: true, Label: "Token status checked", Response: ReplyTokenUnset, SendToUser: true}
	}
	return Outcome{Success: true, Label: "Token status checked", Response: replyTokenStatus(logging.Mask(token)), SendToUser: true}
}

// parseCommand splits "/cmd@bot arg" into "/cmd" and "arg". Text that is not
// a command yields an empty cmd.
func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	cmd = text
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		cmd, arg = text[:i], text[i:]
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
