package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type visibleErr struct{ msg string }

func (e visibleErr) Error() string       { return "visible: " + e.msg }
func (e visibleErr) UserMessage() string { return e.msg }

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "chat_42", SessionKey(42))
	assert.Equal(t, "chat_-1001", SessionKey(-1001))
	assert.Equal(t, SessionKey(42), SessionKey(42))
}

func TestUserMessage(t *testing.T) {
	msg, ok := UserMessage(fmt.Errorf("tool call: %w", visibleErr{msg: "bad token"}))
	assert.True(t, ok)
	assert.Equal(t, "bad token", msg)

	_, ok = UserMessage(errors.New("boom"))
	assert.False(t, ok)

	_, ok = UserMessage(nil)
	assert.False(t, ok)
}
