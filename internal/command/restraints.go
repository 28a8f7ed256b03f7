package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/moderation"
	"github.com/keshon/server-warden/internal/voice"
)

type EnforceCommand struct{}

func (c *EnforceCommand) Name() string        { return "enforce" }
func (c *EnforceCommand) Description() string { return "Words a member must use in every message" }
func (c *EnforceCommand) Usage() string       { return "[@member] <word> [word...]" }
func (c *EnforceCommand) Category() string    { return CategoryRestraints }

func (c *EnforceCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, words := targetOrSelf(cc, args)
	added, err := cc.Moderation.Enforce(ctx, cc.request(target), words)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("📝 %s must now say: **%s**", mention(target), strings.Join(added, "**, **")))
}

type UnenforceCommand struct{}

func (c *UnenforceCommand) Name() string        { return "unenforce" }
func (c *UnenforceCommand) Description() string { return "Lift enforced words" }
func (c *UnenforceCommand) Usage() string       { return "[@member] <word...|all>" }
func (c *UnenforceCommand) Category() string    { return CategoryRestraints }

func (c *UnenforceCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, words := targetOrSelf(cc, args)
	removed, err := cc.Moderation.Unenforce(ctx, cc.request(target), words)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("%s no longer has to say: %s", mention(target), strings.Join(removed, ", ")))
}

type BanCommand struct{}

func (c *BanCommand) Name() string        { return "ban" }
func (c *BanCommand) Description() string { return "Words a member may not use" }
func (c *BanCommand) Usage() string       { return "[@member] <word> [word...]" }
func (c *BanCommand) Category() string    { return CategoryRestraints }

func (c *BanCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, words := targetOrSelf(cc, args)
	added, err := cc.Moderation.Ban(ctx, cc.request(target), words)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("🚫 %s may no longer say: **%s**", mention(target), strings.Join(added, "**, **")))
}

type UnbanCommand struct{}

func (c *UnbanCommand) Name() string        { return "unban" }
func (c *UnbanCommand) Description() string { return "Lift banned words" }
func (c *UnbanCommand) Usage() string       { return "[@member] <word...|all>" }
func (c *UnbanCommand) Category() string    { return CategoryRestraints }

func (c *UnbanCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, words := targetOrSelf(cc, args)
	removed, err := cc.Moderation.Unban(ctx, cc.request(target), words)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("%s may say %s again", mention(target), strings.Join(removed, ", ")))
}

type GagCommand struct{}

func (c *GagCommand) Name() string        { return "gag" }
func (c *GagCommand) Description() string { return "Rewrite a member's messages in a gag style" }
func (c *GagCommand) Usage() string {
	return "[@member] [" + strings.Join(gag.Names(), "|") + "|ungag]"
}
func (c *GagCommand) Category() string { return CategoryRestraints }

func (c *GagCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest := targetOrSelf(cc, args)
	style, err := cc.Moderation.Gag(ctx, cc.request(target), strings.Join(rest, " "))
	if err != nil {
		return err
	}
	if style == gag.None {
		return cc.Reply(ctx, fmt.Sprintf("%s can speak freely again", mention(target)))
	}
	return cc.Reply(ctx, fmt.Sprintf("🤐 %s is gagged: %s", mention(target), style.About()))
}

type UngagCommand struct{}

func (c *UngagCommand) Name() string        { return "ungag" }
func (c *UngagCommand) Description() string { return "Remove a gag" }
func (c *UngagCommand) Usage() string       { return "[@member]" }
func (c *UngagCommand) Category() string    { return CategoryRestraints }

func (c *UngagCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _ := targetOrSelf(cc, args)
	return cc.Moderation.Ungag(ctx, cc.request(target))
}

type LockCommand struct{}

func (c *LockCommand) Name() string        { return "lock" }
func (c *LockCommand) Description() string { return "Toggle a lock that freezes a member's restraints" }
func (c *LockCommand) Usage() string       { return "[@member]" }
func (c *LockCommand) Category() string    { return CategoryRestraints }

func (c *LockCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _ := targetOrSelf(cc, args)
	locked, err := cc.Moderation.Lock(ctx, cc.request(target))
	if err != nil {
		return err
	}
	if locked {
		return cc.Reply(ctx, fmt.Sprintf("🔒 %s is locked", mention(target)))
	}
	return cc.Reply(ctx, fmt.Sprintf("🔓 %s is unlocked", mention(target)))
}

type CooldownCommand struct{}

func (c *CooldownCommand) Name() string        { return "cooldown" }
func (c *CooldownCommand) Description() string { return "Slow a member down between messages" }
func (c *CooldownCommand) Usage() string       { return "[@member] [seconds]" }
func (c *CooldownCommand) Category() string    { return CategoryRestraints }

func (c *CooldownCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest := targetOrSelf(cc, args)
	var seconds *int64
	if len(rest) > 0 {
		n, err := parseInt(rest[0], "seconds")
		if err != nil {
			return err
		}
		seconds = &n
	}
	got, err := cc.Moderation.Cooldown(ctx, cc.request(target), seconds)
	if err != nil {
		return err
	}
	if got == 0 {
		return cc.Reply(ctx, fmt.Sprintf("⏱️ %s has no cooldown", mention(target)))
	}
	return cc.Reply(ctx, fmt.Sprintf("⏱️ %s may speak once every %ds", mention(target), got))
}

type LinesCommand struct{}

func (c *LinesCommand) Name() string        { return "lines" }
func (c *LinesCommand) Description() string { return "Make a member write a line over and over" }
func (c *LinesCommand) Usage() string       { return `@member <count> <penalty> "line" [#channel]` }
func (c *LinesCommand) Category() string    { return CategoryRestraints }

func (c *LinesCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest, err := requireTarget(args)
	if err != nil {
		return err
	}
	if len(rest) < 3 {
		return gateway.Validationf("usage: %slines %s", cc.Prefix, c.Usage())
	}
	count, err := parseInt(rest[0], "count")
	if err != nil {
		return err
	}
	penalty, err := parseInt(rest[1], "penalty")
	if err != nil {
		return err
	}
	lr := moderation.LinesRequest{Count: count, Penalty: penalty, Line: rest[2]}
	if len(rest) > 3 {
		ch, ok := parseChannel(rest[3])
		if !ok {
			return gateway.Validationf("%q is not a channel", rest[3])
		}
		lr.ChannelID = ch
	}
	a, err := cc.Moderation.Lines(ctx, cc.request(target), lr)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, fmt.Sprintf("✏️ %s, write `%s` %d times in <#%s>. Every mistake adds %d.",
		mention(target), a.Line, a.Remaining, a.ChannelID, a.Penalty))
}

type FlickerCommand struct{}

func (c *FlickerCommand) Name() string        { return "flicker" }
func (c *FlickerCommand) Description() string { return "Keep toggling a member's voice mute or deafen" }
func (c *FlickerCommand) Usage() string       { return "@member <mute|deafen|stop>" }
func (c *FlickerCommand) Category() string    { return CategoryRestraints }

func (c *FlickerCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest, err := requireTarget(args)
	if err != nil {
		return err
	}
	mode := string(voice.Mute)
	if len(rest) > 0 {
		mode = rest[0]
	}
	return cc.Moderation.Flicker(ctx, cc.request(target), mode)
}
