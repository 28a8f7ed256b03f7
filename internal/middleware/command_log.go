package middleware

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/pkg/cmd"
)

// WithCommandLogger records every call in the history table and logs failures.
// History errors are logged and never fail the command.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			started := time.Now()
			err := c.Run(ctx, inv)

			rec, ok := inv.Data.(Recorder)
			if !ok {
				return err
			}
			log := rec.Logger()
			fields := []zap.Field{
				zap.String("command", c.Name()),
				zap.String("user", rec.AuthorID()),
				zap.String("guild", rec.GuildID()),
				zap.Duration("took", time.Since(started)),
			}
			if err != nil {
				log.Info("command failed", append(fields, zap.Error(err))...)
			} else {
				log.Debug("command ran", fields...)
			}

			if h := rec.History(); h != nil {
				if herr := h.AppendCommandToHistory(context.WithoutCancel(ctx), storage.CommandHistoryRecord{
					GuildID:   rec.GuildID(),
					ChannelID: rec.ChannelID(),
					UserID:    rec.AuthorID(),
					Command:   c.Name(),
					Args:      strings.Join(inv.Args, " "),
					Datetime:  started,
				}); herr != nil {
					log.Warn("failed to log command", zap.String("command", c.Name()), zap.Error(herr))
				}
			}
			return err
		})
	}
}
