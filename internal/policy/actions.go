package policy

import (
	"strings"

	"github.com/keshon/server-warden/internal/gateway"
)

const (
	ActionTimeout  = "timeout"
	ActionGag      = "gag"
	ActionCooldown = "cooldown"
)

// Actions is the set of consequences applied on a word violation.
type Actions struct {
	Timeout  bool
	Gag      bool
	Cooldown bool
}

// ActionsFor builds the set from stored settings; an empty list means timeout only.
func ActionsFor(stored []string) Actions {
	if len(stored) == 0 {
		return Actions{Timeout: true}
	}
	var a Actions
	for _, s := range stored {
		switch s {
		case ActionTimeout:
			a.Timeout = true
		case ActionGag:
			a.Gag = true
		case ActionCooldown:
			a.Cooldown = true
		}
	}
	return a
}

// ParseActions validates user input such as "timeout,gag" or "timeout gag".
func ParseActions(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			switch part {
			case ActionTimeout, ActionGag, ActionCooldown:
			default:
				return nil, gateway.Validationf("unknown action %q (use timeout, gag, cooldown)", part)
			}
			if !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil, gateway.Validationf("at least one action is required")
	}
	return out, nil
}

func (a Actions) String() string {
	var parts []string
	if a.Timeout {
		parts = append(parts, ActionTimeout)
	}
	if a.Gag {
		parts = append(parts, ActionGag)
	}
	if a.Cooldown {
		parts = append(parts, ActionCooldown)
	}
	return strings.Join(parts, ", ")
}
