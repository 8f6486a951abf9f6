package bot

import (
	"context"
	"time"

	"github.com/hay-kot/dyna/internal/core/logging"
)

// Sweeper removes expired entries from a store.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweep periodically removes expired flags and checkpoints. It blocks until
// the context is cancelled.
func Sweep(ctx context.Context, store Sweeper, interval time.Duration) {
	log := logging.Component("sweep")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.SweepExpired(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("kv sweep")
			}
		}
	}
}
