package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithChatID(t *testing.T) {
	ctx := WithChatID(context.Background(), 12345)

	got, ok := GetChatID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(12345), got)
}

func TestGetChatID_NotPresent(t *testing.T) {
	_, ok := GetChatID(context.Background())
	assert.False(t, ok)
}

func TestWithSessionKey(t *testing.T) {
	ctx := WithSessionKey(context.Background(), "chat_12345")
	assert.Equal(t, "chat_12345", GetSessionKey(ctx))
	assert.Empty(t, GetSessionKey(context.Background()))
}

func TestWithTurnID(t *testing.T) {
	ctx := WithTurnID(context.Background(), "turn-1")
	assert.Equal(t, "turn-1", GetTurnID(ctx))
	assert.Empty(t, GetTurnID(context.Background()))
}

func TestAllKeys(t *testing.T) {
	ctx := context.Background()
	ctx = WithChatID(ctx, -100200)
	ctx = WithSessionKey(ctx, "chat_-100200")
	ctx = WithTurnID(ctx, "t")

	id, ok := GetChatID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(-100200), id)
	assert.Equal(t, "chat_-100200", GetSessionKey(ctx))
	assert.Equal(t, "t", GetTurnID(ctx))
}
