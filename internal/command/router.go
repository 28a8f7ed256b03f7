package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/pkg/cmd"
)

const (
	emojiOK   = "✅"
	emojiFail = "❌"
)

// Router dispatches prefixed messages to registered commands.
type Router struct {
	registry *cmd.Registry
	services *Services
}

// NewRouter uses cmd.DefaultRegistry when registry is nil.
func NewRouter(registry *cmd.Registry, services *Services) *Router {
	if registry == nil {
		registry = cmd.DefaultRegistry
	}
	if services.Log == nil {
		services.Log = zap.NewNop()
	}
	return &Router{registry: registry, services: services}
}

// IsCommand reports whether content addresses a registered command.
func (r *Router) IsCommand(content string) bool {
	inv, ok := cmd.Parse(r.services.Prefix, content)
	return ok && r.registry.Get(inv.Name) != nil
}

// Dispatch runs the command named by msg, if any. Unknown names are ignored.
func (r *Router) Dispatch(ctx context.Context, msg gateway.Message) {
	inv, ok := cmd.Parse(r.services.Prefix, msg.Content)
	if !ok {
		return
	}
	c := r.registry.Get(inv.Name)
	if c == nil {
		return
	}
	inv.Data = &Context{Services: r.services, Msg: msg}

	r.render(ctx, msg, c.Name(), r.run(ctx, c, inv))
}

func (r *Router) run(ctx context.Context, c cmd.Command, inv *cmd.Invocation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.services.Log.Error("command panicked", zap.String("command", c.Name()),
				zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("command %s panicked", c.Name())
		}
	}()
	return c.Run(ctx, inv)
}

func (r *Router) render(ctx context.Context, msg gateway.Message, name string, err error) {
	sink := r.services.Sink
	if err == nil {
		if rerr := sink.AddReaction(ctx, msg.ChannelID, msg.ID, emojiOK); rerr != nil && !errors.Is(rerr, gateway.ErrNotFound) {
			r.services.Log.Debug("ack reaction failed", zap.Error(rerr))
		}
		return
	}

	_ = sink.AddReaction(ctx, msg.ChannelID, msg.ID, emojiFail)
	text := err.Error()
	switch {
	case gateway.UserFacing(err), errors.Is(err, gateway.ErrExternal):
	default:
		r.services.Log.Error("command error", zap.String("command", name),
			zap.String("user", msg.AuthorID), zap.Error(err))
		text = "something went wrong, the error was logged"
	}
	if _, serr := sink.SendMessage(ctx, msg.ChannelID, gateway.Outgoing{
		Content:     fmt.Sprintf("%s %s", emojiFail, text),
		DeleteAfter: r.services.WarningTTL,
	}); serr != nil {
		r.services.Log.Warn("failed to report command error", zap.Error(serr))
	}
}
