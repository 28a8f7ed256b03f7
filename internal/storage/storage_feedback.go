package storage

import "context"

// FeedbackProfile registers a user with the external feedback device.
type FeedbackProfile struct {
	UserID    string `db:"user_id"`
	Code      string `db:"code"`
	Intensity int    `db:"intensity"`
	Duration  int    `db:"duration"`
}

func (s *Storage) FeedbackProfiles(ctx context.Context) ([]FeedbackProfile, error) {
	var out []FeedbackProfile
	err := s.db.SelectContext(ctx, &out, `SELECT user_id, code, intensity, duration FROM feedback_profiles`)
	return out, err
}

func (s *Storage) PutFeedbackProfile(ctx context.Context, p FeedbackProfile) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO feedback_profiles (user_id, code, intensity, duration)
		 VALUES (:user_id, :code, :intensity, :duration)
		 ON CONFLICT(user_id) DO UPDATE SET code = excluded.code,
		   intensity = excluded.intensity, duration = excluded.duration`, p)
	return err
}

func (s *Storage) DeleteFeedbackProfile(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM feedback_profiles WHERE user_id = ?`, userID)
	return err
}
