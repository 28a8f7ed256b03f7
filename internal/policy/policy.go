// Package policy holds the per-user restriction evaluators. Evaluators only read
// state and return a Decision; applying consequences is the pipeline's job.
package policy

import (
	"time"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/storage"
)

// State is the read side of the hot cache.
type State interface {
	LockedBy(userID string) (string, bool)
	Prison(userID string) (storage.PrisonAssignment, bool)
	Lines(userID string) (storage.LineAssignment, bool)
	Words(kind storage.WordKind, userID string) []storage.WordRule
	Cooldown(userID string) (int64, time.Time)
	Gag(userID string) (string, bool)
}

type Verdict int

const (
	// Allow lets the message continue untouched.
	Allow Verdict = iota
	// Effect lets the message continue after a side effect is applied.
	Effect
	// Block stops the pipeline; the message never reaches dispatch.
	Block
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Effect:
		return "effect"
	case Block:
		return "block"
	}
	return "unknown"
}

type Name string

const (
	NameLines    Name = "lines"
	NamePrison   Name = "prison"
	NameEnforce  Name = "enforce"
	NameBan      Name = "ban"
	NameCooldown Name = "cooldown"
	NameGag      Name = "gag"
)

// LineProgress describes the result of one line-writing check.
type LineProgress struct {
	InChannel bool
	Correct   bool
	Remaining int64
	Complete  bool
}

type Decision struct {
	Verdict Verdict
	Policy  Name

	// Words are the violating rules, before escalation.
	Words []storage.WordRule
	// RemainingSeconds is the cooldown still to wait, rounded up, at least 1.
	RemainingSeconds int64
	// ChannelID is the confinement channel for prison decisions.
	ChannelID string
	Style     gag.Style
	Text      string
	Lines     LineProgress
}

func (d Decision) Blocks() bool { return d.Verdict == Block }

var allow = Decision{Verdict: Allow}
