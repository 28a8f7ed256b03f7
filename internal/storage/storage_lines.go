package storage

import "context"

// LineAssignment is an active line-writing session.
type LineAssignment struct {
	UserID     string `db:"user_id"`
	Line       string `db:"line"`
	Remaining  int64  `db:"remaining"`
	Penalty    int64  `db:"penalty"`
	ChannelID  string `db:"channel_id"`
	AssignedBy string `db:"assigned_by"`
}

func (s *Storage) Lines(ctx context.Context) ([]LineAssignment, error) {
	var out []LineAssignment
	err := s.db.SelectContext(ctx, &out,
		`SELECT user_id, line, remaining, penalty, channel_id, assigned_by FROM lines`)
	return out, err
}

func (s *Storage) PutLines(ctx context.Context, a LineAssignment) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO lines (user_id, line, remaining, penalty, channel_id, assigned_by)
		 VALUES (:user_id, :line, :remaining, :penalty, :channel_id, :assigned_by)
		 ON CONFLICT(user_id) DO UPDATE SET line = excluded.line, remaining = excluded.remaining,
		   penalty = excluded.penalty, channel_id = excluded.channel_id, assigned_by = excluded.assigned_by`, a)
	return err
}

func (s *Storage) DeleteLines(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lines WHERE user_id = ?`, userID)
	return err
}
