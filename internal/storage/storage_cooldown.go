package storage

import (
	"context"
	"time"
)

type CooldownRecord struct {
	UserID      string
	Seconds     int64
	LastMessage time.Time
}

type cooldownRow struct {
	UserID      string `db:"user_id"`
	Seconds     int64  `db:"seconds"`
	LastMessage int64  `db:"last_message_ms"`
}

func (s *Storage) Cooldowns(ctx context.Context) ([]CooldownRecord, error) {
	var rows []cooldownRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, seconds, last_message_ms FROM cooldowns`); err != nil {
		return nil, err
	}
	out := make([]CooldownRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, CooldownRecord{UserID: r.UserID, Seconds: r.Seconds, LastMessage: fromMillis(r.LastMessage)})
	}
	return out, nil
}

func (s *Storage) PutCooldown(ctx context.Context, rec CooldownRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cooldowns (user_id, seconds, last_message_ms) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET seconds = excluded.seconds, last_message_ms = excluded.last_message_ms`,
		rec.UserID, rec.Seconds, toMillis(rec.LastMessage))
	return err
}

func (s *Storage) DeleteCooldown(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cooldowns WHERE user_id = ?`, userID)
	return err
}
