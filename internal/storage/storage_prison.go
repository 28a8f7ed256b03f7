package storage

import (
	"context"
	"database/sql"
	"time"
)

type PrisonAssignment struct {
	UserID         string
	ChannelID      string
	EnteredBalance int64
	EnteredAt      time.Time
}

type prisonRow struct {
	UserID         string `db:"user_id"`
	ChannelID      string `db:"channel_id"`
	EnteredBalance int64  `db:"entered_balance"`
	EnteredAt      int64  `db:"entered_at"`
}

// SolitaryRecord backs a confinement with a dedicated thread.
// ArchivedAt is zero while the thread is active.
type SolitaryRecord struct {
	UserID     string
	ThreadID   string
	ArchivedAt time.Time
}

func (r SolitaryRecord) Active() bool { return r.ArchivedAt.IsZero() }

type solitaryRow struct {
	UserID     string        `db:"user_id"`
	ThreadID   string        `db:"thread_id"`
	ArchivedAt sql.NullInt64 `db:"archived_at"`
}

func (s *Storage) Prisoners(ctx context.Context) ([]PrisonAssignment, error) {
	var rows []prisonRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, channel_id, entered_balance, entered_at FROM prisoners`); err != nil {
		return nil, err
	}
	out := make([]PrisonAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, PrisonAssignment{
			UserID:         r.UserID,
			ChannelID:      r.ChannelID,
			EnteredBalance: r.EnteredBalance,
			EnteredAt:      fromMillis(r.EnteredAt),
		})
	}
	return out, nil
}

func (s *Storage) PutPrisoner(ctx context.Context, p PrisonAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prisoners (user_id, channel_id, entered_balance, entered_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET channel_id = excluded.channel_id,
		   entered_balance = excluded.entered_balance, entered_at = excluded.entered_at`,
		p.UserID, p.ChannelID, p.EnteredBalance, toMillis(p.EnteredAt))
	return err
}

func (s *Storage) DeletePrisoner(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prisoners WHERE user_id = ?`, userID)
	return err
}

// Solitary returns the user's solitary record, or nil if none was ever created.
func (s *Storage) Solitary(ctx context.Context, userID string) (*SolitaryRecord, error) {
	var row solitaryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT user_id, thread_id, archived_at FROM solitary WHERE user_id = ?`, userID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := &SolitaryRecord{UserID: row.UserID, ThreadID: row.ThreadID}
	if row.ArchivedAt.Valid {
		rec.ArchivedAt = fromMillis(row.ArchivedAt.Int64)
	}
	return rec, nil
}

func (s *Storage) PutSolitary(ctx context.Context, rec SolitaryRecord) error {
	var archived sql.NullInt64
	if !rec.ArchivedAt.IsZero() {
		archived = sql.NullInt64{Int64: toMillis(rec.ArchivedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO solitary (user_id, thread_id, archived_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET thread_id = excluded.thread_id, archived_at = excluded.archived_at`,
		rec.UserID, rec.ThreadID, archived)
	return err
}
