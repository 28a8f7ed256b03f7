package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/pkg/cmd"
	"github.com/keshon/server-warden/pkg/util"
)

type OffensesCommand struct{}

func (c *OffensesCommand) Name() string        { return "offenses" }
func (c *OffensesCommand) Description() string { return "Show a member's restraints and offense count" }
func (c *OffensesCommand) Usage() string       { return "[@member]" }
func (c *OffensesCommand) Category() string    { return CategoryInfo }
func (c *OffensesCommand) Aliases() []string   { return []string{"status"} }

func (c *OffensesCommand) Run(ctx context.Context, cc *Context, args []string) error {
	target, _ := targetOrSelf(cc, args)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n**Offenses:** %d\n", mention(target), cc.Cache.Offenses(target))

	writeRules := func(title string, rules []storage.WordRule) {
		if len(rules) == 0 {
			return
		}
		fmt.Fprintf(&sb, "**%s:**\n", title)
		for _, r := range rules {
			fmt.Fprintf(&sb, "• `%s` next timeout %s (+%ds)\n", r.Word, util.FormatSeconds(r.InitialTime), r.AddedTime)
		}
	}
	writeRules("Must say", cc.Cache.Words(storage.KindEnforced, target))
	writeRules("Must not say", cc.Cache.Words(storage.KindBanned, target))

	if style, ok := cc.Cache.Gag(target); ok {
		fmt.Fprintf(&sb, "**Gag:** %s\n", style)
	}
	if secs, _ := cc.Cache.Cooldown(target); secs > 0 {
		fmt.Fprintf(&sb, "**Cooldown:** %s\n", util.FormatSeconds(secs))
	}
	if cell, ok := cc.Cache.Prison(target); ok {
		fmt.Fprintf(&sb, "**Confined to:** <#%s> since %s\n", cell.ChannelID, util.FormatDate(cell.EnteredAt))
	}
	if a, ok := cc.Cache.Lines(target); ok {
		fmt.Fprintf(&sb, "**Lines:** `%s` x%d in <#%s>\n", a.Line, a.Remaining, a.ChannelID)
	}
	return cc.ReplyEmbed(ctx, "Offenses", sb.String())
}

type AuditCommand struct{}

func (c *AuditCommand) Name() string        { return "audit" }
func (c *AuditCommand) Description() string { return "List escalations whose timeout was never applied" }
func (c *AuditCommand) Usage() string       { return "[@member] [all]" }
func (c *AuditCommand) Category() string    { return CategoryManagement }

func (c *AuditCommand) Run(ctx context.Context, cc *Context, args []string) error {
	var target string
	if len(args) > 0 {
		if id, ok := parseUser(args[0]); ok {
			target, args = id, args[1:]
		}
	}
	orphanedOnly := !(len(args) > 0 && strings.EqualFold(args[0], "all"))
	events, err := cc.Audit.OffenseEvents(ctx, target, orphanedOnly, 15)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return cc.Reply(ctx, "Nothing to report.")
	}
	var sb strings.Builder
	for _, ev := range events {
		mark := "✅"
		if !ev.Applied {
			mark = "⚠️"
		}
		fmt.Fprintf(&sb, "%s %s #%d %s `%s` %s, %s\n", mark, mention(ev.UserID), ev.OffenseNumber,
			ev.Kind, ev.Words, util.FormatSeconds(ev.TimeoutSeconds), util.FormatDate(ev.CreatedAt))
	}
	return cc.ReplyEmbed(ctx, "Audit", sb.String())
}

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List commands" }
func (c *HelpCommand) Usage() string       { return "[command]" }
func (c *HelpCommand) Category() string    { return CategoryInfo }

func (c *HelpCommand) Run(ctx context.Context, cc *Context, args []string) error {
	if len(args) > 0 {
		found := cmd.DefaultRegistry.Get(args[0])
		if found == nil {
			return cc.Reply(ctx, fmt.Sprintf("No command named %q.", args[0]))
		}
		return cc.ReplyEmbed(ctx, cc.Prefix+found.Name(), helpLine(cc.Prefix, Describe(found)))
	}
	return cc.ReplyEmbed(ctx, "Server Warden Help", buildHelpByCategory(cc.Prefix, cmd.DefaultRegistry.GetAll()))
}

func helpLine(prefix string, e Entry) string {
	usage := ""
	if e.Usage != "" {
		usage = " " + e.Usage
	}
	return fmt.Sprintf("`%s%s%s` %s", prefix, e.Name, usage, e.Description)
}

func buildHelpByCategory(prefix string, all []cmd.Command) string {
	var sb strings.Builder
	for _, sec := range Sections(all) {
		fmt.Fprintf(&sb, "**%s**\n", sec.Category)
		for _, e := range sec.Entries {
			sb.WriteString(helpLine(prefix, e) + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Gag styles: " + strings.Join(gag.Names(), ", ") + "\n")
	sb.WriteString("Punishments: " + strings.Join([]string{policy.ActionTimeout, policy.ActionGag, policy.ActionCooldown}, ", "))
	return sb.String()
}
