package cache

import (
	"time"

	"github.com/keshon/server-warden/internal/storage"
)

func (c *Cache) LockedBy(userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	by, ok := c.st.locks[userID]
	return by, ok
}

func (c *Cache) Prison(userID string) (storage.PrisonAssignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.st.prisoners[userID]
	return p, ok
}

// Cooldown returns the configured cooldown in seconds (0 if none) and the last
// time a message from the user passed the cooldown check.
func (c *Cache) Cooldown(userID string) (int64, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.cooldowns[userID], c.st.lastSeen[userID]
}

// Words returns the user's rules of the given kind, ordered by word.
func (c *Cache) Words(kind storage.WordKind, userID string) []storage.WordRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.st.words[wordKey{kind, userID}]
	if len(set) == 0 {
		return nil
	}
	return sortedRules(set)
}

func (c *Cache) Gag(userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.st.gags[userID]
	return s, ok
}

func (c *Cache) Offenses(userID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.offenses[userID]
}

// Settings returns the stored settings or a zero value carrying only UserID.
func (c *Cache) Settings(userID string) storage.UserSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.st.settings[userID]; ok {
		s.Actions = append([]string(nil), s.Actions...)
		return s
	}
	return storage.UserSettings{UserID: userID}
}

func (c *Cache) IsIgnored(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.st.ignored[userID]
	return ok
}

func (c *Cache) IsAllowed(userID, channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.st.allowed[storage.AllowEntry{UserID: userID, ChannelID: channelID}]
	return ok
}

func (c *Cache) Lines(userID string) (storage.LineAssignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.st.lines[userID]
	return l, ok
}

func (c *Cache) FeedbackProfile(userID string) (storage.FeedbackProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.st.feedback[userID]
	return p, ok
}
