package middleware

import (
	"context"
	"fmt"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/pkg/cmd"
)

// WithManagerOnly refuses the call unless the author is in the manager set.
func WithManagerOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			m, ok := inv.Data.(Managed)
			if ok && !m.IsManager(m.AuthorID()) {
				return fmt.Errorf("%w: %s is for managers only", gateway.ErrPermissionDenied, c.Name())
			}
			return c.Run(ctx, inv)
		})
	}
}
