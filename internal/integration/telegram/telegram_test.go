package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type apiCall struct {
	Method string
	Body   map[string]any
}

// fakeBotAPI records Bot API calls. Formatted messages are rejected when
// rejectHTML is set.
type fakeBotAPI struct {
	mu         sync.Mutex
	calls      []apiCall
	rejectHTML bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: body})
	reject := f.rejectHTML && body["parse_mode"] == "HTML"
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case reject:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
	case method == "sendMessage":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}
}

func (f *fakeBotAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func newTestTransport(t *testing.T, api *fakeBotAPI) *Transport {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tr, err := New(testToken, Options{APIServer: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return tr
}

func TestNew_RejectsMalformedToken(t *testing.T) {
	_, err := New("not-a-token", Options{})
	require.Error(t, err)
}

func TestTransport_SendMessageMarkdown(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(t, api)

	err := tr.SendMessage(context.Background(), 42, "**Done** <now>", chat.ParseModeMarkdown)
	require.NoError(t, err)

	require.Len(t, api.calls, 1)
	call := api.calls[0]
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, float64(42), call.Body["chat_id"])
	assert.Equal(t, "HTML", call.Body["parse_mode"])
	assert.Equal(t, "<b>Done</b> &lt;now&gt;", call.Body["text"])
}

func TestTransport_SendMessageFallsBackToPlain(t *testing.T) {
	api := &fakeBotAPI{rejectHTML: true}
	tr := newTestTransport(t, api)

	err := tr.SendMessage(context.Background(), 42, "**Done**", chat.ParseModeMarkdown)
	require.NoError(t, err)

	require.Len(t, api.calls, 2)
	assert.Nil(t, api.calls[1].Body["parse_mode"])
	assert.Equal(t, "**Done**", api.calls[1].Body["text"])
}

func TestTransport_SendMessageChunks(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(t, api)

	long := strings.Repeat("word ", 1000) // 5000 chars
	require.NoError(t, tr.SendMessage(context.Background(), 42, long, chat.ParseModeNone))

	assert.Equal(t, []string{"sendMessage", "sendMessage"}, api.methods())
}

func TestTransport_TypingAndDelete(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(t, api)
	ctx := context.Background()

	require.NoError(t, tr.SendTyping(ctx, 42))
	require.NoError(t, tr.DeleteMessage(ctx, 42, 7))

	require.Len(t, api.calls, 2)
	assert.Equal(t, "sendChatAction", api.calls[0].Method)
	assert.Equal(t, "typing", api.calls[0].Body["action"])
	assert.Equal(t, "deleteMessage", api.calls[1].Method)
	assert.Equal(t, float64(7), api.calls[1].Body["message_id"])
}

func TestDecodeUpdate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    chat.Message
		ok      bool
		wantErr bool
	}{
		{
			name:    "text message",
			payload: `{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"from":{"id":42,"is_bot":false,"first_name":"Ada"},"text":"hello"}}`,
			want:    chat.Message{ID: 5, ChatID: 42, Text: "hello", FirstName: "Ada"},
			ok:      true,
		},
		{
			name:    "no sender",
			payload: `{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":-100,"type":"group"},"text":"/start"}}`,
			want:    chat.Message{ID: 5, ChatID: -100, Text: "/start"},
			ok:      true,
		},
		{
			name:    "photo without text",
			payload: `{"update_id":1,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"}}}`,
		},
		{
			name:    "edited message only",
			payload: `{"update_id":1,"edited_message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"text":"x"}}`,
		},
		{
			name:    "garbage",
			payload: `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok, err := DecodeUpdate(strings.NewReader(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"**bold** and ~~gone~~", "<b>bold</b> and <s>gone</s>"},
		{"# Title", "<b>Title</b>"},
		{"a < b & c", "a &lt; b &amp; c"},
		{"use `**x**`", "use <code>**x**</code>"},
		{"```go\nif a < b {}\n```", "<pre><code>if a &lt; b {}\n</code></pre>"},
		{"[site](https://x.io)", `<a href="https://x.io">site</a>`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markdownToHTML(tt.in), tt.in)
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"line one", "line two"}, splitMessage("line one\nline two", 12))
	assert.Equal(t, []string{"aaaa", "bbbb"}, splitMessage("aaaa bbbb", 6))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, splitMessage("abcdefghijk", 5))

	for _, chunk := range splitMessage(strings.Repeat("é", 25), 10) {
		assert.LessOrEqual(t, len([]rune(chunk)), 10)
	}
}
