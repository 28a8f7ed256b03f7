package command

import (
	"context"
	"fmt"

	"github.com/keshon/server-warden/internal/gateway"
)

type PrisonCommand struct{}

func (c *PrisonCommand) Name() string        { return "prison" }
func (c *PrisonCommand) Description() string { return "Confine a member to one channel" }
func (c *PrisonCommand) Usage() string       { return "@member [#channel]" }
func (c *PrisonCommand) Category() string    { return CategoryPrison }

func (c *PrisonCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest, err := requireTarget(args)
	if err != nil {
		return err
	}
	channel := cc.Msg.ChannelID
	if len(rest) > 0 {
		ch, ok := parseChannel(rest[0])
		if !ok {
			return gateway.Validationf("%q is not a channel", rest[0])
		}
		channel = ch
	}
	if err := cc.Moderation.Prison(ctx, cc.request(target), channel); err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("⛓️ %s may only speak in <#%s> now", mention(target), channel))
}

type SolitaryCommand struct{}

func (c *SolitaryCommand) Name() string        { return "solitary" }
func (c *SolitaryCommand) Description() string { return "Confine a member to a private thread" }
func (c *SolitaryCommand) Usage() string       { return "@member" }
func (c *SolitaryCommand) Category() string    { return CategoryPrison }

func (c *SolitaryCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _, err := requireTarget(args)
	if err != nil {
		return err
	}
	th, err := cc.Moderation.Solitary(ctx, cc.request(target))
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🚪 %s was taken to <#%s>", mention(target), th.ID))
}

type ReleaseCommand struct{}

func (c *ReleaseCommand) Name() string        { return "release" }
func (c *ReleaseCommand) Description() string { return "Let a member out of prison or solitary" }
func (c *ReleaseCommand) Usage() string       { return "@member" }
func (c *ReleaseCommand) Category() string    { return CategoryPrison }

func (c *ReleaseCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _, err := requireTarget(args)
	if err != nil {
		return err
	}
	if err := cc.Moderation.Release(ctx, cc.request(target)); err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🕊️ %s is free", mention(target)))
}

type FreedomCommand struct{}

func (c *FreedomCommand) Name() string        { return "freedom" }
func (c *FreedomCommand) Description() string { return "Buy your way out of confinement" }
func (c *FreedomCommand) Usage() string       { return "" }
func (c *FreedomCommand) Category() string    { return CategoryPrison }

func (c *FreedomCommand) Run(ctx context.Context, cc *Context, _ []string) error {
	left, err := cc.Moderation.Freedom(ctx, cc.request(cc.Msg.AuthorID))
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🕊️ %s bought their freedom and has %d coins left", mention(cc.Msg.AuthorID), left))
}
