package sessionstore

import (
	"context"
	"time"

	"github.com/mirrorlabs/twinengine/logger"
)

// Sweeper periodically evicts expired sessions from a store.
type Sweeper struct {
	store    *MemoryStore
	interval time.Duration
	onSwept  func(count int)
}

// NewSweeper creates a sweeper over store that fires every interval.
// onSwept, if non-nil, is invoked after each pass that evicted at least one
// session (used to feed metrics).
func NewSweeper(store *MemoryStore, interval time.Duration, onSwept func(count int)) *Sweeper {
	return &Sweeper{store: store, interval: interval, onSwept: onSwept}
}

// Run blocks, sweeping until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Debug("session sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("session sweeper stopped")
			return
		case now := <-ticker.C:
			if count := s.store.SweepExpired(now); count > 0 {
				logger.Info("🧹 Swept expired sessions", "count", count, "remaining", s.store.Len())
				if s.onSwept != nil {
					s.onSwept(count)
				}
			}
		}
	}
}
