package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/server-warden/internal/gateway"
)

type AllowCommand struct{}

func (c *AllowCommand) Name() string        { return "allow" }
func (c *AllowCommand) Description() string { return "Toggle reaction feedback exemption for a member in a channel" }
func (c *AllowCommand) Usage() string       { return "@member [#channel]" }
func (c *AllowCommand) Category() string    { return CategoryManagement }

func (c *AllowCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, rest, err := requireTarget(args)
	if err != nil {
		return err
	}
	channel := ""
	if len(rest) > 0 {
		ch, ok := parseChannel(rest[0])
		if !ok {
			return gateway.Validationf("%q is not a channel", rest[0])
		}
		channel = ch
	}
	allowed, err := cc.Moderation.ToggleAllow(ctx, cc.request(target), channel)
	if err != nil {
		return err
	}
	if allowed {
		return cc.Reply(ctx, fmt.Sprintf("%s is exempt here", mention(target)))
	}
	return cc.Reply(ctx, fmt.Sprintf("%s is no longer exempt here", mention(target)))
}

type IgnoreCommand struct{}

func (c *IgnoreCommand) Name() string        { return "ignore" }
func (c *IgnoreCommand) Description() string { return "Toggle whether the warden ignores a member" }
func (c *IgnoreCommand) Usage() string       { return "@member" }
func (c *IgnoreCommand) Category() string    { return CategoryManagement }

func (c *IgnoreCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _, err := requireTarget(args)
	if err != nil {
		return err
	}
	ignored, err := cc.Moderation.ToggleIgnore(ctx, cc.request(target))
	if err != nil {
		return err
	}
	if ignored {
		return cc.Reply(ctx, fmt.Sprintf("🙈 ignoring %s", mention(target)))
	}
	return cc.Reply(ctx, fmt.Sprintf("👀 watching %s again", mention(target)))
}

type ReloadCommand struct{}

func (c *ReloadCommand) Name() string        { return "reload" }
func (c *ReloadCommand) Description() string { return "Rebuild the in-memory state from the database" }
func (c *ReloadCommand) Usage() string       { return "" }
func (c *ReloadCommand) Category() string    { return CategoryManagement }

func (c *ReloadCommand) Run(ctx context.Context, cc *Context, _ []string) error {
	stats, err := cc.Moderation.Reload(ctx, cc.Msg.AuthorID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, stats[k]))
	}
	return cc.Reply(ctx, "🔄 Reloaded: "+strings.Join(parts, ", "))
}

type JobsCommand struct{}

func (c *JobsCommand) Name() string        { return "jobs" }
func (c *JobsCommand) Description() string { return "Show running voice effects and owed restores" }
func (c *JobsCommand) Usage() string       { return "" }
func (c *JobsCommand) Category() string    { return CategoryManagement }

func (c *JobsCommand) Run(ctx context.Context, cc *Context, _ []string) error {
	status, err := cc.Moderation.VoiceStatus(cc.Msg.AuthorID)
	if err != nil {
		return err
	}
	return cc.Reply(ctx, "🎛️ "+status)
}
