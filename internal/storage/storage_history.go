package storage

import (
	"context"
	"time"
)

type CommandHistoryRecord struct {
	GuildID   string
	ChannelID string
	UserID    string
	Command   string
	Args      string
	Datetime  time.Time
}

type historyRow struct {
	GuildID   string `db:"guild_id"`
	ChannelID string `db:"channel_id"`
	UserID    string `db:"user_id"`
	Command   string `db:"command"`
	Args      string `db:"args"`
	CreatedAt int64  `db:"created_at"`
}

// AppendCommandToHistory stores a command invocation and trims the table to the newest entries.
func (s *Storage) AppendCommandToHistory(ctx context.Context, rec CommandHistoryRecord) error {
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO command_history (guild_id, channel_id, user_id, command, args, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.GuildID, rec.ChannelID, rec.UserID, rec.Command, rec.Args, toMillis(rec.Datetime)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM command_history WHERE id NOT IN
		 (SELECT id FROM command_history ORDER BY id DESC LIMIT ?)`, commandHistoryLimit)
	return err
}

// FetchCommandHistory returns up to limit records, newest first. An empty guildID matches all guilds.
func (s *Storage) FetchCommandHistory(ctx context.Context, guildID string, limit int) ([]CommandHistoryRecord, error) {
	if limit <= 0 || limit > commandHistoryLimit {
		limit = commandHistoryLimit
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT guild_id, channel_id, user_id, command, args, created_at FROM command_history
		 WHERE (? = '' OR guild_id = ?) ORDER BY id DESC LIMIT ?`, guildID, guildID, limit); err != nil {
		return nil, err
	}
	out := make([]CommandHistoryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, CommandHistoryRecord{
			GuildID:   r.GuildID,
			ChannelID: r.ChannelID,
			UserID:    r.UserID,
			Command:   r.Command,
			Args:      r.Args,
			Datetime:  fromMillis(r.CreatedAt),
		})
	}
	return out, nil
}
