package storage

import "context"

type AllowEntry struct {
	UserID    string `db:"user_id"`
	ChannelID string `db:"channel_id"`
}

func (s *Storage) AllowList(ctx context.Context) ([]AllowEntry, error) {
	var out []AllowEntry
	err := s.db.SelectContext(ctx, &out, `SELECT user_id, channel_id FROM allow_list`)
	return out, err
}

func (s *Storage) PutAllow(ctx context.Context, e AllowEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO allow_list (user_id, channel_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		e.UserID, e.ChannelID)
	return err
}

func (s *Storage) DeleteAllow(ctx context.Context, e AllowEntry) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM allow_list WHERE user_id = ? AND channel_id = ?`, e.UserID, e.ChannelID)
	return err
}

func (s *Storage) Ignored(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out, `SELECT user_id FROM ignored`)
	return out, err
}

func (s *Storage) PutIgnored(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ignored (user_id) VALUES (?) ON CONFLICT DO NOTHING`, userID)
	return err
}

func (s *Storage) DeleteIgnored(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ignored WHERE user_id = ?`, userID)
	return err
}
