package storage

import (
	"context"
	"strings"
)

// UserSettings holds per-user preferences. Actions is the subset of
// {timeout, gag, cooldown} applied on word violations.
type UserSettings struct {
	UserID   string
	Actions  []string
	GagStyle string
	AuthMode string
}

type settingsRow struct {
	UserID   string `db:"user_id"`
	Actions  string `db:"actions"`
	GagStyle string `db:"gag_style"`
	AuthMode string `db:"auth_mode"`
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (s *Storage) AllSettings(ctx context.Context) ([]UserSettings, error) {
	var rows []settingsRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, actions, gag_style, auth_mode FROM settings`); err != nil {
		return nil, err
	}
	out := make([]UserSettings, 0, len(rows))
	for _, r := range rows {
		out = append(out, UserSettings{
			UserID:   r.UserID,
			Actions:  splitCSV(r.Actions),
			GagStyle: r.GagStyle,
			AuthMode: r.AuthMode,
		})
	}
	return out, nil
}

func (s *Storage) PutSettings(ctx context.Context, us UserSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, actions, gag_style, auth_mode) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET actions = excluded.actions,
		   gag_style = excluded.gag_style, auth_mode = excluded.auth_mode`,
		us.UserID, strings.Join(us.Actions, ","), us.GagStyle, us.AuthMode)
	return err
}
