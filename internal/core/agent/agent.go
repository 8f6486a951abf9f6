// Package agent defines the contract of the language-model runtime that
// answers free-form chat messages.
package agent

import (
	"context"
	"errors"
	"strconv"
)

// Runtime runs one conversational turn. Turns sharing a sessionKey share
// history. credential may be empty, in which case outline tools are
// unavailable to the model.
type Runtime interface {
	Invoke(ctx context.Context, sessionKey, text, credential string) (string, error)
}

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(ctx context.Context, sessionKey, text, credential string) (string, error)

func (f RuntimeFunc) Invoke(ctx context.Context, sessionKey, text, credential string) (string, error) {
	return f(ctx, sessionKey, text, credential)
}

// SessionKey is the conversation key of a chat.
func SessionKey(chatID int64) string {
	return "chat_" + strconv.FormatInt(chatID, 10)
}

// UserFacingError is an error whose message is safe and useful to show
// the user as-is.
type UserFacingError interface {
	error
	UserMessage() string
}

// UserMessage returns the user-facing text of err when any error in its
// chain implements UserFacingError.
func UserMessage(err error) (string, bool) {
	var ufe UserFacingError
	if errors.As(err, &ufe) {
		return ufe.UserMessage(), true
	}
	return "", false
}
