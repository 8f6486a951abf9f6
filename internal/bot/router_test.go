package bot

import (
	"context"
	"testing"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/userstate/userstatetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 42

func msg(text string) chat.Message {
	return chat.Message{ID: 7, ChatID: chatID, Text: text, FirstName: "Ada"}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text, cmd, arg string
	}{
		{"/start", "/start", ""},
		{"  /token   abc123  ", "/token", "abc123"},
		{"/token\nabc123", "/token", "abc123"},
		{"/token_status", "/token_status", ""},
		{"/token@DynaBot abc", "/token", "abc"},
		{"/CLEAR", "/clear", ""},
		{"hello /start", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, arg := parseCommand(tt.text)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.arg, arg)
		})
	}
}

func TestRoute_Commands(t *testing.T) {
	ctx := context.Background()
	store := userstatetest.New()
	r := NewRouter(store)

	tests := []struct {
		name string
		text string
		want Outcome
	}{
		{
			name: "clear",
			text: "/clear",
			want: Outcome{Success: true, Label: "History cleared", Response: ReplyHistoryCleared, SendToUser: true},
		},
		{
			name: "reset",
			text: "/reset",
			want: Outcome{Success: true, Label: "History cleared", Response: ReplyHistoryCleared, SendToUser: true},
		},
		{
			name: "token without argument",
			text: "/token",
			want: Outcome{Label: "No token provided", Response: ReplyTokenUsage, SendToUser: true},
		},
		{
			name: "token status unset",
			text: "/token_status",
			want: Outcome{Success: true, Label: "Token status checked", Response: ReplyTokenUnset, SendToUser: true},
		},
		{
			name: "start",
			text: "/start",
			want: Outcome{Success: true, Label: "Welcome sent", Response: replyWelcome("Ada"), SendToUser: true},
		},
		{
			name: "free text without token",
			text: "add milk",
			want: Outcome{Success: true, Label: "Unauthorized message sent", Response: ReplyAccessRequired, SendToUser: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(ctx, msg(tt.text)))
		})
	}
}

func TestRoute_TokenSavedAndDeleted(t *testing.T) {
	ctx := context.Background()
	store := userstatetest.New()
	r := NewRouter(store)

	out := r.Route(ctx, msg("/token abcdef123456789"))
	assert.True(t, out.Success)
	assert.True(t, out.SendToUser)
	assert.True(t, out.DeleteMessage)
	assert.Equal(t, ReplyTokenSaved, out.Response)

	token, ok := store.GetToken(ctx, chatID)
	require.True(t, ok)
	assert.Equal(t, "abcdef123456789", token)

	out = r.Route(ctx, msg("/token_status"))
	assert.Contains(t, out.Response, "`abcdef12...6789`")
}

func TestRoute_TokenSaveFailureStillDeletes(t *testing.T) {
	store := userstatetest.New()
	store.Fail.Store(true)

	out := NewRouter(store).Route(context.Background(), msg("/token secret-value"))
	assert.False(t, out.Success)
	assert.True(t, out.DeleteMessage)
	assert.Equal(t, ReplyTokenFailed, out.Response)
}

func TestRoute_ReadyForAgent(t *testing.T) {
	ctx := context.Background()
	store := userstatetest.New()
	store.SaveToken(ctx, chatID, "tok")

	out := NewRouter(store).Route(ctx, msg("add milk"))
	assert.True(t, out.NeedsAgent())
	assert.False(t, out.SendToUser)
	assert.Empty(t, out.Response)
}

func TestRoute_CommandsBypassBusyCheck(t *testing.T) {
	ctx := context.Background()
	store := userstatetest.New()
	store.SaveToken(ctx, chatID, "abcdef123456789")
	require.True(t, store.TrySetProcessing(ctx, chatID))
	r := NewRouter(store)

	out := r.Route(ctx, msg("/token_status"))
	assert.Equal(t, "Token status checked", out.Label)

	out = r.Route(ctx, msg("add milk"))
	assert.Equal(t, ReplyBusy, out.Response)
	assert.False(t, out.NeedsAgent())
}

func TestRoute_ResetKeepsToken(t *testing.T) {
	ctx := context.Background()
	store := userstatetest.New()
	store.SaveToken(ctx, chatID, "tok")
	require.True(t, store.TrySetProcessing(ctx, chatID))

	NewRouter(store).Route(ctx, msg("/reset"))

	token, ok := store.GetToken(ctx, chatID)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.False(t, store.IsProcessing(ctx, chatID))
}

func TestReplyWelcome_DefaultName(t *testing.T) {
	assert.Contains(t, replyWelcome(""), "👋 Hi there!")
	assert.Contains(t, replyWelcome("Ada"), "👋 Hi Ada!")
}
