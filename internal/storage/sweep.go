package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by the sql backends, whose slots do not expire on
// their own. Redis slots carry a TTL instead.
type Sweeper interface {
	// Sweep deletes slots last written before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunSweeper deletes slots untouched for longer than retention every
// interval until ctx is done. It returns at once for stores that are not
// Sweepers or when retention is not positive.
func RunSweeper(ctx context.Context, store Store, retention, every time.Duration, logger *zap.Logger) {
	sw, ok := store.(Sweeper)
	if !ok || retention <= 0 || every <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sweeper")

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sw.Sweep(ctx, now.Add(-retention))
			if err != nil {
				logger.Warn("sweep slots", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired slots removed", zap.Int64("count", n))
			}
		}
	}
}
