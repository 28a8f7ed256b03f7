package storage

import "context"

type LockRecord struct {
	UserID   string `db:"user_id"`
	LockedBy string `db:"locked_by"`
}

func (s *Storage) Locks(ctx context.Context) ([]LockRecord, error) {
	var out []LockRecord
	err := s.db.SelectContext(ctx, &out, `SELECT user_id, locked_by FROM locks`)
	return out, err
}

func (s *Storage) PutLock(ctx context.Context, rec LockRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locks (user_id, locked_by) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET locked_by = excluded.locked_by`,
		rec.UserID, rec.LockedBy)
	return err
}

func (s *Storage) DeleteLock(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM locks WHERE user_id = ?`, userID)
	return err
}
