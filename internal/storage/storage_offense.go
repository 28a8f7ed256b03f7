package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type OffenseCounter struct {
	UserID string `db:"user_id"`
	Count  int64  `db:"count"`
}

// OffenseEvent is the audit trail of one violation. Applied is false when the
// escalation was persisted but the timeout could not be placed.
type OffenseEvent struct {
	ID             string
	UserID         string
	Kind           WordKind
	Words          string
	OffenseNumber  int64
	TimeoutSeconds int64
	Applied        bool
	CreatedAt      time.Time
}

type offenseEventRow struct {
	ID             string `db:"id"`
	UserID         string `db:"user_id"`
	Kind           string `db:"kind"`
	Words          string `db:"words"`
	OffenseNumber  int64  `db:"offense_number"`
	TimeoutSeconds int64  `db:"timeout_seconds"`
	Applied        bool   `db:"applied"`
	CreatedAt      int64  `db:"created_at"`
}

func (s *Storage) Offenses(ctx context.Context) ([]OffenseCounter, error) {
	var out []OffenseCounter
	err := s.db.SelectContext(ctx, &out, `SELECT user_id, count FROM offenses`)
	return out, err
}

// IncrementOffense bumps the user's counter by one and returns the new value.
func (s *Storage) IncrementOffense(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offenses (user_id, count) VALUES (?, 1)
			 ON CONFLICT(user_id) DO UPDATE SET count = count + 1`, userID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &count, `SELECT count FROM offenses WHERE user_id = ?`, userID)
	})
	return count, err
}

// RecordOffenseEvent stores an audit row and returns its generated id.
func (s *Storage) RecordOffenseEvent(ctx context.Context, ev OffenseEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offense_events (id, user_id, kind, words, offense_number, timeout_seconds, applied, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.Kind, ev.Words, ev.OffenseNumber, ev.TimeoutSeconds, ev.Applied, toMillis(ev.CreatedAt))
	return ev.ID, err
}

// OffenseEvents lists audit rows, newest first. With orphanedOnly set, only
// escalations whose timeout was never applied are returned.
func (s *Storage) OffenseEvents(ctx context.Context, userID string, orphanedOnly bool, limit int) ([]OffenseEvent, error) {
	query := `SELECT id, user_id, kind, words, offense_number, timeout_seconds, applied, created_at
		FROM offense_events WHERE (? = '' OR user_id = ?)`
	if orphanedOnly {
		query += ` AND applied = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	if limit <= 0 {
		limit = 20
	}

	var rows []offenseEventRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, userID, limit); err != nil {
		return nil, err
	}
	out := make([]OffenseEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, OffenseEvent{
			ID:             r.ID,
			UserID:         r.UserID,
			Kind:           WordKind(r.Kind),
			Words:          r.Words,
			OffenseNumber:  r.OffenseNumber,
			TimeoutSeconds: r.TimeoutSeconds,
			Applied:        r.Applied,
			CreatedAt:      fromMillis(r.CreatedAt),
		})
	}
	return out, nil
}
