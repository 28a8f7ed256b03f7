package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/cache"
	"github.com/keshon/server-warden/internal/economy"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/middleware"
	"github.com/keshon/server-warden/internal/moderation"
	"github.com/keshon/server-warden/internal/storage"
)

const embedColor = 0x8E44AD

// AuditReader lists offense audit rows.
type AuditReader interface {
	OffenseEvents(ctx context.Context, userID string, orphanedOnly bool, limit int) ([]storage.OffenseEvent, error)
}

// Services is everything a command may reach.
type Services struct {
	Moderation *moderation.Service
	Wallet     *economy.Wallet
	Cache      *cache.Cache
	Audit      AuditReader
	History    middleware.HistoryStore
	Sink       gateway.Sink
	Log        *zap.Logger
	Prefix     string
	WarningTTL time.Duration
}

// Context is the per-call value commands receive.
type Context struct {
	*Services
	Msg gateway.Message
}

func (c *Context) GuildID() string                  { return c.Msg.GuildID }
func (c *Context) ChannelID() string                { return c.Msg.ChannelID }
func (c *Context) AuthorID() string                 { return c.Msg.AuthorID }
func (c *Context) Logger() *zap.Logger              { return c.Log }
func (c *Context) History() middleware.HistoryStore { return c.Services.History }
func (c *Context) IsManager(userID string) bool     { return c.Moderation.IsManager(userID) }

func (c *Context) request(target string) moderation.Request {
	return moderation.Request{
		Invoker:   c.Msg.AuthorID,
		Target:    target,
		GuildID:   c.Msg.GuildID,
		ChannelID: c.Msg.ChannelID,
	}
}

// deleteInvocation removes the invoking message, logging failures.
func (c *Context) deleteInvocation(ctx context.Context) {
	if err := c.Sink.DeleteMessage(ctx, c.Msg.ChannelID, c.Msg.ID); err != nil {
		c.Log.Warn("delete invoking message failed", zap.String("message", c.Msg.ID), zap.Error(err))
	}
}

// Reply posts content in the invoking channel.
func (c *Context) Reply(ctx context.Context, content string) error {
	_, err := c.Sink.SendMessage(ctx, c.Msg.ChannelID, gateway.Outgoing{Content: content})
	return err
}

func (c *Context) ReplyEmbed(ctx context.Context, title, description string) error {
	_, err := c.Sink.SendMessage(ctx, c.Msg.ChannelID, gateway.Outgoing{
		Embed: &gateway.Embed{Title: title, Description: description, Color: embedColor},
	})
	return err
}
