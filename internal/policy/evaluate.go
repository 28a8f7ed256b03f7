package policy

import (
	"math"
	"strings"
	"time"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/storage"
)

// Locked reports whether the user is locked and by whom.
func Locked(st State, userID string) (string, bool) {
	return st.LockedBy(userID)
}

// Lines checks an active line-writing session. Inside the writing channel the
// message is consumed: a verbatim (trimmed) match counts down, anything else adds
// the penalty. Outside the channel the penalty applies without looking at the text.
func Lines(st State, userID, channelID, content string) Decision {
	a, ok := st.Lines(userID)
	if !ok {
		return allow
	}
	d := Decision{Policy: NameLines}
	if channelID != a.ChannelID {
		d.Verdict = Effect
		d.Lines = LineProgress{Remaining: a.Remaining + a.Penalty}
		return d
	}
	d.Verdict = Block
	d.Lines.InChannel = true
	if strings.TrimSpace(content) == strings.TrimSpace(a.Line) {
		d.Lines.Correct = true
		d.Lines.Remaining = a.Remaining - 1
	} else {
		d.Lines.Remaining = a.Remaining + a.Penalty
	}
	d.Lines.Complete = d.Lines.Remaining <= 0
	return d
}

// Prison blocks messages outside the confinement channel. The user's active
// line-writing channel is exempt so a prisoner can still work off lines.
func Prison(st State, userID, channelID string) Decision {
	p, ok := st.Prison(userID)
	if !ok || channelID == p.ChannelID {
		return allow
	}
	if a, writing := st.Lines(userID); writing && a.ChannelID == channelID {
		return allow
	}
	return Decision{Verdict: Block, Policy: NamePrison, ChannelID: p.ChannelID}
}

// Enforcement blocks a message missing any of the user's enforced words.
func Enforcement(st State, userID, content string) Decision {
	rules := st.Words(storage.KindEnforced, userID)
	if len(rules) == 0 {
		return allow
	}
	lower := strings.ToLower(content)
	var missing []storage.WordRule
	for _, r := range rules {
		if !strings.Contains(lower, strings.ToLower(r.Word)) {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return allow
	}
	return Decision{Verdict: Block, Policy: NameEnforce, Words: missing}
}

// Ban blocks a message containing any of the user's banned words.
func Ban(st State, userID, content string) Decision {
	rules := st.Words(storage.KindBanned, userID)
	if len(rules) == 0 {
		return allow
	}
	lower := strings.ToLower(content)
	var present []storage.WordRule
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.Word)) {
			present = append(present, r)
		}
	}
	if len(present) == 0 {
		return allow
	}
	return Decision{Verdict: Block, Policy: NameBan, Words: present}
}

// Cooldown blocks while less than the configured seconds passed since the last
// accepted message. An accepted message yields Effect so the caller refreshes the
// last-message time, whether or not a cooldown is set.
func Cooldown(st State, userID string, now time.Time) Decision {
	seconds, last := st.Cooldown(userID)
	if seconds > 0 && !last.IsZero() {
		wait := time.Duration(seconds)*time.Second - now.Sub(last)
		if wait > 0 {
			return Decision{Verdict: Block, Policy: NameCooldown, RemainingSeconds: DisplaySeconds(wait)}
		}
	}
	return Decision{Verdict: Effect, Policy: NameCooldown}
}

// Gag replaces the message with its transformed rendering. An unreadable stored
// style falls back to fallback.
func Gag(st State, userID, content string, fallback gag.Style) Decision {
	name, ok := st.Gag(userID)
	if !ok {
		return allow
	}
	style, err := gag.Parse(name)
	if err != nil {
		style = fallback
	}
	return Decision{Verdict: Block, Policy: NameGag, Style: style, Text: gag.Transform(style, content)}
}

// DisplaySeconds rounds a positive wait up to whole seconds, never below 1.
func DisplaySeconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// WordConflict returns the first word of opposite that is a case-insensitive
// substring of word or contains it.
func WordConflict(word string, opposite []storage.WordRule) (string, bool) {
	w := strings.ToLower(word)
	for _, r := range opposite {
		o := strings.ToLower(r.Word)
		if strings.Contains(o, w) || strings.Contains(w, o) {
			return r.Word, true
		}
	}
	return "", false
}

// TotalTimeout sums initial times; callers pass the already escalated rules.
func TotalTimeout(rules []storage.WordRule) int64 {
	var total int64
	for _, r := range rules {
		total += r.InitialTime
	}
	return total
}

// TotalAdded sums the added times of every rule.
func TotalAdded(rules []storage.WordRule) int64 {
	var total int64
	for _, r := range rules {
		total += r.AddedTime
	}
	return total
}

func WordList(rules []storage.WordRule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Word
	}
	return out
}
