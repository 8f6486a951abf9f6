package bot

import (
	"context"
	"sync"
	"time"

	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
)

// startTyping sends the typing indicator now and then every interval until
// the returned stop func is called or ctx ends. stop is safe to call more
// than once and returns after the ticker goroutine has exited.
func startTyping(ctx context.Context, transport chat.Transport, chatID int64, interval time.Duration) (stop func()) {
	log := logging.Component("typing")

	send := func() {
		if err := transport.SendTyping(ctx, chatID); err != nil {
			log.Debug().Err(err).Int64("chat_id", chatID).Msg("send typing")
		}
	}

	send()

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}
