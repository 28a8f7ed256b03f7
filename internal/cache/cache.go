// Package cache keeps an in-memory mirror of the moderation state so the message
// pipeline never reads the database. Mutators write the store first and only update
// memory once the write succeeded; Load rebuilds everything from the store.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keshon/server-warden/internal/storage"
)

// Store is the subset of the State Store the cache mirrors.
type Store interface {
	Locks(ctx context.Context) ([]storage.LockRecord, error)
	PutLock(ctx context.Context, rec storage.LockRecord) error
	DeleteLock(ctx context.Context, userID string) error

	Prisoners(ctx context.Context) ([]storage.PrisonAssignment, error)
	PutPrisoner(ctx context.Context, p storage.PrisonAssignment) error
	DeletePrisoner(ctx context.Context, userID string) error

	Cooldowns(ctx context.Context) ([]storage.CooldownRecord, error)
	PutCooldown(ctx context.Context, rec storage.CooldownRecord) error
	DeleteCooldown(ctx context.Context, userID string) error

	Words(ctx context.Context) ([]storage.WordRule, error)
	PutWord(ctx context.Context, rule storage.WordRule) error
	DeleteWord(ctx context.Context, kind storage.WordKind, userID, word string) error
	EscalateWords(ctx context.Context, kind storage.WordKind, userID string, words []string) ([]storage.WordRule, error)

	Gags(ctx context.Context) ([]storage.GagAssignment, error)
	PutGag(ctx context.Context, g storage.GagAssignment) error
	DeleteGag(ctx context.Context, userID string) error

	Offenses(ctx context.Context) ([]storage.OffenseCounter, error)
	IncrementOffense(ctx context.Context, userID string) (int64, error)

	AllSettings(ctx context.Context) ([]storage.UserSettings, error)
	PutSettings(ctx context.Context, us storage.UserSettings) error

	AllowList(ctx context.Context) ([]storage.AllowEntry, error)
	PutAllow(ctx context.Context, e storage.AllowEntry) error
	DeleteAllow(ctx context.Context, e storage.AllowEntry) error
	Ignored(ctx context.Context) ([]string, error)
	PutIgnored(ctx context.Context, userID string) error
	DeleteIgnored(ctx context.Context, userID string) error

	Lines(ctx context.Context) ([]storage.LineAssignment, error)
	PutLines(ctx context.Context, a storage.LineAssignment) error
	DeleteLines(ctx context.Context, userID string) error

	FeedbackProfiles(ctx context.Context) ([]storage.FeedbackProfile, error)
	PutFeedbackProfile(ctx context.Context, p storage.FeedbackProfile) error
	DeleteFeedbackProfile(ctx context.Context, userID string) error
}

type wordKey struct {
	kind storage.WordKind
	user string
}

type state struct {
	locks     map[string]string
	prisoners map[string]storage.PrisonAssignment
	cooldowns map[string]int64
	lastSeen  map[string]time.Time
	words     map[wordKey]map[string]storage.WordRule
	gags      map[string]string
	offenses  map[string]int64
	settings  map[string]storage.UserSettings
	allowed   map[storage.AllowEntry]struct{}
	ignored   map[string]struct{}
	lines     map[string]storage.LineAssignment
	feedback  map[string]storage.FeedbackProfile
}

func newState() state {
	return state{
		locks:     map[string]string{},
		prisoners: map[string]storage.PrisonAssignment{},
		cooldowns: map[string]int64{},
		lastSeen:  map[string]time.Time{},
		words:     map[wordKey]map[string]storage.WordRule{},
		gags:      map[string]string{},
		offenses:  map[string]int64{},
		settings:  map[string]storage.UserSettings{},
		allowed:   map[storage.AllowEntry]struct{}{},
		ignored:   map[string]struct{}{},
		lines:     map[string]storage.LineAssignment{},
		feedback:  map[string]storage.FeedbackProfile{},
	}
}

type Cache struct {
	store Store

	mu sync.RWMutex
	st state
}

// New returns an empty cache. Call Load before serving events.
func New(store Store) *Cache {
	return &Cache{store: store, st: newState()}
}

// Load replaces the cache contents with a fresh read of every table.
// On error the previous contents are kept.
func (c *Cache) Load(ctx context.Context) error {
	st := newState()

	locks, err := c.store.Locks(ctx)
	if err != nil {
		return fmt.Errorf("load locks: %w", err)
	}
	for _, l := range locks {
		st.locks[l.UserID] = l.LockedBy
	}

	prisoners, err := c.store.Prisoners(ctx)
	if err != nil {
		return fmt.Errorf("load prisoners: %w", err)
	}
	for _, p := range prisoners {
		st.prisoners[p.UserID] = p
	}

	cooldowns, err := c.store.Cooldowns(ctx)
	if err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}
	for _, cd := range cooldowns {
		st.cooldowns[cd.UserID] = cd.Seconds
		st.lastSeen[cd.UserID] = cd.LastMessage
	}

	words, err := c.store.Words(ctx)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	for _, w := range words {
		st.putWord(w)
	}

	gags, err := c.store.Gags(ctx)
	if err != nil {
		return fmt.Errorf("load gags: %w", err)
	}
	for _, g := range gags {
		st.gags[g.UserID] = g.Style
	}

	offenses, err := c.store.Offenses(ctx)
	if err != nil {
		return fmt.Errorf("load offenses: %w", err)
	}
	for _, o := range offenses {
		st.offenses[o.UserID] = o.Count
	}

	settings, err := c.store.AllSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	for _, s := range settings {
		st.settings[s.UserID] = s
	}

	allow, err := c.store.AllowList(ctx)
	if err != nil {
		return fmt.Errorf("load allow list: %w", err)
	}
	for _, a := range allow {
		st.allowed[a] = struct{}{}
	}

	ignored, err := c.store.Ignored(ctx)
	if err != nil {
		return fmt.Errorf("load ignored: %w", err)
	}
	for _, id := range ignored {
		st.ignored[id] = struct{}{}
	}

	lines, err := c.store.Lines(ctx)
	if err != nil {
		return fmt.Errorf("load lines: %w", err)
	}
	for _, l := range lines {
		st.lines[l.UserID] = l
	}

	profiles, err := c.store.FeedbackProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load feedback profiles: %w", err)
	}
	for _, p := range profiles {
		st.feedback[p.UserID] = p
	}

	c.mu.Lock()
	c.st = st
	c.mu.Unlock()
	return nil
}

func (st *state) putWord(w storage.WordRule) {
	k := wordKey{w.Kind, w.UserID}
	set, ok := st.words[k]
	if !ok {
		set = map[string]storage.WordRule{}
		st.words[k] = set
	}
	set[w.Word] = w
}

// Stats reports entry counts per domain, used for startup logging.
func (c *Cache) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	words := 0
	for _, set := range c.st.words {
		words += len(set)
	}
	return map[string]int{
		"locks":     len(c.st.locks),
		"prisoners": len(c.st.prisoners),
		"cooldowns": len(c.st.cooldowns),
		"words":     words,
		"gags":      len(c.st.gags),
		"settings":  len(c.st.settings),
		"lines":     len(c.st.lines),
		"ignored":   len(c.st.ignored),
	}
}

func sortedRules(set map[string]storage.WordRule) []storage.WordRule {
	out := make([]storage.WordRule, 0, len(set))
	for _, r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}
