package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_ToolCalls(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"choices": [{
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "list_lists", "arguments": "{}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "sk-test", time.Second)
	res, err := client.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Content: "show my lists"}},
		Tools:    []Tool{NewTool("list_lists", "List documents", map[string]any{"type": "object"})},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "list_lists", got.Tools[0].Function.Name)

	assert.Equal(t, "tool_calls", res.FinishReason)
	require.Len(t, res.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", res.Message.ToolCalls[0].ID)
	assert.Equal(t, "list_lists", res.Message.ToolCalls[0].Function.Name)
	assert.Equal(t, 15, res.Usage.TotalTokens)
}

func TestComplete_HTTPErrorUsesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", time.Second).Complete(context.Background(), Request{Model: "m"})
	require.EqualError(t, err, "openai http 401: Incorrect API key provided")
}

func TestComplete_HTTPErrorRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Complete(context.Background(), Request{Model: "m"})
	require.EqualError(t, err, "openai http 502: upstream down")
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Complete(context.Background(), Request{Model: "m"})
	require.ErrorContains(t, err, "empty choices")
}

func TestNew_Defaults(t *testing.T) {
	c := New("", "k", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, 90*time.Second, c.HTTP.Timeout)
}
