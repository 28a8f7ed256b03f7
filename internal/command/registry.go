// Package command turns prefixed chat messages into calls on the moderation,
// economy and feedback services.
package command

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/keshon/server-warden/internal/middleware"
	"github.com/keshon/server-warden/pkg/cmd"
)

// Categories, in help order.
const (
	CategoryInfo       = "🕯️ Information"
	CategoryRestraints = "🎭 Restraints"
	CategoryPrison     = "⛓️ Prison"
	CategoryEconomy    = "🪙 Economy"
	CategorySettings   = "⚙️ Settings"
	CategoryManagement = "🛠️ Management"
)

var categoryWeights = map[string]int{
	CategoryInfo:       0,
	CategoryRestraints: 10,
	CategoryPrison:     20,
	CategoryEconomy:    30,
	CategorySettings:   40,
	CategoryManagement: 50,
}

// ChatCommand is what each prefix command implements.
type ChatCommand interface {
	Name() string
	Description() string
	Usage() string
	Category() string
	Run(ctx context.Context, c *Context, args []string) error
}

// Adapter lets a ChatCommand live in the cmd registry.
type Adapter struct {
	Cmd ChatCommand
}

func (a *Adapter) Name() string        { return a.Cmd.Name() }
func (a *Adapter) Description() string { return a.Cmd.Description() }
func (a *Adapter) Usage() string       { return a.Cmd.Usage() }
func (a *Adapter) Category() string    { return a.Cmd.Category() }

func (a *Adapter) Aliases() []string {
	if al, ok := a.Cmd.(cmd.Aliased); ok {
		return al.Aliases()
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	c, ok := inv.Data.(*Context)
	if !ok {
		return fmt.Errorf("command %s: unexpected invocation data %T", a.Cmd.Name(), inv.Data)
	}
	return a.Cmd.Run(ctx, c, inv.Args)
}

// Entry is the catalogue view of one command.
type Entry struct {
	Name        string
	Usage       string
	Description string
	Aliases     []string
}

type Section struct {
	Category string
	Entries  []Entry
}

type described interface {
	Usage() string
	Category() string
}

func Describe(c cmd.Command) Entry {
	e := Entry{Name: c.Name(), Description: c.Description()}
	root := cmd.Root(c)
	if d, ok := root.(described); ok {
		e.Usage = d.Usage()
	}
	if al, ok := root.(cmd.Aliased); ok {
		e.Aliases = al.Aliases()
	}
	return e
}

// Sections groups commands by category in help order, names sorted within each.
func Sections(all []cmd.Command) []Section {
	byCat := make(map[string][]Entry)
	for _, c := range all {
		cat := CategoryInfo
		if d, ok := cmd.Root(c).(described); ok {
			cat = d.Category()
		}
		byCat[cat] = append(byCat[cat], Describe(c))
	}
	out := make([]Section, 0, len(byCat))
	for cat, entries := range byCat {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		out = append(out, Section{Category: cat, Entries: entries})
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := categoryWeights[out[i].Category], categoryWeights[out[j].Category]
		if wi == wj {
			return out[i].Category < out[j].Category
		}
		return wi < wj
	})
	return out
}

// RegisterCommand adds a command to the default registry with the standard
// middlewares plus any extra ones, which run innermost.
func RegisterCommand(c ChatCommand, extra ...cmd.Middleware) {
	mws := append(slices.Clone(extra), middleware.WithGuildOnly(), middleware.WithCommandLogger())
	cmd.DefaultRegistry.MustRegister(cmd.Apply(&Adapter{Cmd: c}, mws...))
}

func init() {
	RegisterCommand(&EnforceCommand{})
	RegisterCommand(&UnenforceCommand{})
	RegisterCommand(&BanCommand{})
	RegisterCommand(&UnbanCommand{})
	RegisterCommand(&GagCommand{})
	RegisterCommand(&UngagCommand{})
	RegisterCommand(&LockCommand{})
	RegisterCommand(&CooldownCommand{})
	RegisterCommand(&LinesCommand{})
	RegisterCommand(&FlickerCommand{})

	RegisterCommand(&PrisonCommand{})
	RegisterCommand(&SolitaryCommand{})
	RegisterCommand(&ReleaseCommand{})
	RegisterCommand(&FreedomCommand{})

	RegisterCommand(&BalanceCommand{})
	RegisterCommand(&DailyCommand{})
	RegisterCommand(&GiveCommand{})

	RegisterCommand(&SettingsCommand{})
	RegisterCommand(&FeedbackCommand{})
	RegisterCommand(&OffensesCommand{})
	RegisterCommand(&HelpCommand{})

	RegisterCommand(&AuditCommand{}, middleware.WithManagerOnly())
	RegisterCommand(&AllowCommand{}, middleware.WithManagerOnly())
	RegisterCommand(&IgnoreCommand{}, middleware.WithManagerOnly())
	RegisterCommand(&ReloadCommand{}, middleware.WithManagerOnly())
	RegisterCommand(&JobsCommand{}, middleware.WithManagerOnly())
}
