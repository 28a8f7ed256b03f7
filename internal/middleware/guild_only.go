package middleware

import (
	"context"

	"github.com/keshon/server-warden/pkg/cmd"
)

// WithGuildOnly drops calls made outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if o, ok := inv.Data.(Origin); ok && o.GuildID() == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
