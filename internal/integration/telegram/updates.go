package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/mymmrac/telego"
)

// ToMessage extracts the text message of an update. Updates without a text
// message report false.
func ToMessage(update telego.Update) (chat.Message, bool) {
	m := update.Message
	if m == nil || m.Text == "" {
		return chat.Message{}, false
	}

	msg := chat.Message{
		ID:     m.MessageID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}
	if m.From != nil {
		msg.FirstName = m.From.FirstName
	}
	return msg, true
}

// DecodeUpdate reads a webhook payload. A well-formed update without a
// text message reports false and no error.
func DecodeUpdate(r io.Reader) (chat.Message, bool, error) {
	var update telego.Update
	if err := json.NewDecoder(r).Decode(&update); err != nil {
		return chat.Message{}, false, fmt.Errorf("decode update: %w", err)
	}
	msg, ok := ToMessage(update)
	return msg, ok, nil
}

// Poll long-polls for updates and returns their text messages until ctx is
// cancelled. The channel is closed when polling stops.
func (t *Transport) Poll(ctx context.Context, timeoutSeconds int) (<-chan chat.Message, error) {
	updates, err := t.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        timeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start long polling: %w", err)
	}

	out := make(chan chat.Message)
	go func() {
		defer close(out)
		for update := range updates {
			msg, ok := ToMessage(update)
			if !ok {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
