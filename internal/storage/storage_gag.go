package storage

import "context"

type GagAssignment struct {
	UserID string `db:"user_id"`
	Style  string `db:"style"`
}

func (s *Storage) Gags(ctx context.Context) ([]GagAssignment, error) {
	var out []GagAssignment
	err := s.db.SelectContext(ctx, &out, `SELECT user_id, style FROM gags`)
	return out, err
}

func (s *Storage) PutGag(ctx context.Context, g GagAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gags (user_id, style) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET style = excluded.style`, g.UserID, g.Style)
	return err
}

func (s *Storage) DeleteGag(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM gags WHERE user_id = ?`, userID)
	return err
}
