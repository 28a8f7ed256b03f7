package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PruneOffenseEvents deletes audit rows created before cutoff and returns how many went.
func (s *Storage) PruneOffenseEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM offense_events WHERE created_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunAuditCleaner drops audit rows older than retention every hour until ctx is
// done. A zero retention keeps everything.
func RunAuditCleaner(ctx context.Context, store *Storage, retention time.Duration, log *zap.Logger) {
	if retention <= 0 {
		return
	}
	sweep := func() {
		n, err := store.PruneOffenseEvents(ctx, time.Now().Add(-retention))
		if err != nil {
			if ctx.Err() == nil {
				log.Error("prune offense events failed", zap.Error(err))
			}
			return
		}
		if n > 0 {
			log.Info("pruned offense events", zap.Int64("count", n), zap.Duration("retention", retention))
		}
	}

	sweep()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
