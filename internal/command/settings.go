package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-warden/internal/auth"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
)

type SettingsCommand struct{}

func (c *SettingsCommand) Name() string        { return "settings" }
func (c *SettingsCommand) Description() string { return "Show or change punishments, gag style and consent mode" }
func (c *SettingsCommand) Usage() string {
	return "[@member] [actions timeout,gag,cooldown | style <name> | auth ask|auto|deny]"
}
func (c *SettingsCommand) Category() string { return CategorySettings }

func (c *SettingsCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest := targetOrSelf(cc, args)
	if len(rest) == 0 {
		return c.show(ctx, cc, target)
	}

	req := cc.request(target)
	value := rest[1:]
	switch strings.ToLower(rest[0]) {
	case "actions":
		actions, err := cc.Moderation.SetActions(ctx, req, value)
		if err != nil {
			return err
		}
		return cc.Reply(ctx, fmt.Sprintf("⚙️ Violations now cost %s: %s", mention(target), strings.Join(actions, ", ")))
	case "style":
		if len(value) == 0 {
			return gateway.Validationf("pick a style: %s", strings.Join(gag.Names(), ", "))
		}
		style, err := cc.Moderation.SetGagStyle(ctx, req, value[0])
		if err != nil {
			return err
		}
		return cc.Reply(ctx, fmt.Sprintf("⚙️ Gag style for %s is now %s", mention(target), style))
	case "auth":
		if len(value) == 0 {
			return gateway.Validationf("pick a mode: %s, %s or %s", auth.ModeAsk, auth.ModeAuto, auth.ModeDeny)
		}
		mode, err := cc.Moderation.SetAuthMode(ctx, req, value[0])
		if err != nil {
			return err
		}
		return cc.Reply(ctx, fmt.Sprintf("⚙️ Consent mode for %s is now %s", mention(target), mode))
	}
	return gateway.Validationf("unknown setting %q", rest[0])
}

func (c *SettingsCommand) show(ctx context.Context, cc *Context, target string) error {
	us := cc.Moderation.Settings(target)
	style := us.GagStyle
	if style == "" {
		style = "default"
	}
	mode := us.AuthMode
	if mode == "" {
		mode = auth.ModeAsk
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Punishments:** %s\n", policy.ActionsFor(us.Actions))
	fmt.Fprintf(&sb, "**Gag style:** %s\n", style)
	fmt.Fprintf(&sb, "**Consent:** %s\n", mode)
	if by, ok := cc.Cache.LockedBy(target); ok {
		fmt.Fprintf(&sb, "**Locked by:** %s\n", mention(by))
	}
	return cc.ReplyEmbed(ctx, "Settings", fmt.Sprintf("%s\n\n%s", mention(target), sb.String()))
}

type FeedbackCommand struct{}

func (c *FeedbackCommand) Name() string        { return "feedback" }
func (c *FeedbackCommand) Description() string { return "Manage your feedback device" }
func (c *FeedbackCommand) Usage() string {
	return "register <code> <intensity 1-100> <duration 1-15> | unregister | test [@member]"
}
func (c *FeedbackCommand) Category() string { return CategorySettings }

func (c *FeedbackCommand) Run(ctx context.Context, cc *Context, args []string) error {
	if len(args) == 0 {
		return gateway.Validationf("usage: %sfeedback %s", cc.Prefix, c.Usage())
	}
	sub, rest := strings.ToLower(args[0]), args[1:]
	target, rest := targetOrSelf(cc, rest)
	req := cc.request(target)

	switch sub {
	case "register":
		if len(rest) > 0 {
			// The device code is a credential and never stays in the channel.
			defer cc.deleteInvocation(ctx)
		}
		if len(rest) < 3 {
			return gateway.Validationf("usage: %sfeedback %s", cc.Prefix, c.Usage())
		}
		intensity, err := parseInt(rest[1], "intensity")
		if err != nil {
			return err
		}
		duration, err := parseInt(rest[2], "duration")
		if err != nil {
			return err
		}
		if err := cc.Moderation.RegisterFeedback(ctx, req, rest[0], int(intensity), int(duration)); err != nil {
			return err
		}
		return cc.Reply(ctx, fmt.Sprintf("📳 Device registered for %s", mention(target)))
	case "unregister":
		return cc.Moderation.UnregisterFeedback(ctx, req)
	case "test":
		res, err := cc.Moderation.TestFeedback(ctx, req)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%w: %s", gateway.ErrExternal, res.Message)
		}
		return cc.Reply(ctx, "📳 "+res.Message)
	}
	return gateway.Validationf("unknown subcommand %q", sub)
}
