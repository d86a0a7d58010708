package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredSessionDeleter removes sessions that expired at or before now and
// reports how many were removed.
type ExpiredSessionDeleter interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// RunSessionCleaner deletes expired sessions every interval until ctx is done.
// It blocks and always returns nil; failures are logged and retried on the next tick.
func RunSessionCleaner(
	ctx context.Context,
	store ExpiredSessionDeleter,
	interval time.Duration,
	log *zap.Logger,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := store.DeleteExpiredSessions(ctx, time.Now().UTC())
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("failed to clean expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("cleaned expired sessions", zap.Int64("removed", removed))
			}
		}
	}
}
