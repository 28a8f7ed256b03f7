package cache

import (
	"context"
	"time"

	"github.com/keshon/server-warden/internal/storage"
)

func (c *Cache) SetLock(ctx context.Context, userID, lockedBy string) error {
	if err := c.store.PutLock(ctx, storage.LockRecord{UserID: userID, LockedBy: lockedBy}); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.locks[userID] = lockedBy
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveLock(ctx context.Context, userID string) error {
	if err := c.store.DeleteLock(ctx, userID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.st.locks, userID)
	c.mu.Unlock()
	return nil
}

func (c *Cache) SetPrison(ctx context.Context, p storage.PrisonAssignment) error {
	if err := c.store.PutPrisoner(ctx, p); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.prisoners[p.UserID] = p
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemovePrison(ctx context.Context, userID string) error {
	if err := c.store.DeletePrisoner(ctx, userID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.st.prisoners, userID)
	c.mu.Unlock()
	return nil
}

// SetCooldown stores a cooldown of seconds for the user; zero removes it.
// The last-message time is reset to now either way.
func (c *Cache) SetCooldown(ctx context.Context, userID string, seconds int64, now time.Time) error {
	if seconds <= 0 {
		if err := c.store.DeleteCooldown(ctx, userID); err != nil {
			return err
		}
		c.mu.Lock()
		delete(c.st.cooldowns, userID)
		c.st.lastSeen[userID] = now
		c.mu.Unlock()
		return nil
	}
	if err := c.store.PutCooldown(ctx, storage.CooldownRecord{UserID: userID, Seconds: seconds, LastMessage: now}); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.cooldowns[userID] = seconds
	c.st.lastSeen[userID] = now
	c.mu.Unlock()
	return nil
}

// AddCooldown extends the user's cooldown by add seconds, capped at ceiling when
// ceiling is positive, and resets the last-message time. It returns the new value.
func (c *Cache) AddCooldown(ctx context.Context, userID string, add, ceiling int64, now time.Time) (int64, error) {
	current, _ := c.Cooldown(userID)
	next := current + add
	if ceiling > 0 && next > ceiling {
		next = ceiling
	}
	if err := c.SetCooldown(ctx, userID, next, now); err != nil {
		return current, err
	}
	return next, nil
}

// TouchLastMessage records that a message passed the cooldown check. Memory is
// always updated; the store only when the user has a cooldown row.
func (c *Cache) TouchLastMessage(ctx context.Context, userID string, now time.Time) error {
	c.mu.Lock()
	seconds, hasCooldown := c.st.cooldowns[userID]
	c.st.lastSeen[userID] = now
	c.mu.Unlock()
	if !hasCooldown {
		return nil
	}
	return c.store.PutCooldown(ctx, storage.CooldownRecord{UserID: userID, Seconds: seconds, LastMessage: now})
}

func (c *Cache) PutWord(ctx context.Context, rule storage.WordRule) error {
	if err := c.store.PutWord(ctx, rule); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.putWord(rule)
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveWord(ctx context.Context, kind storage.WordKind, userID, word string) error {
	if err := c.store.DeleteWord(ctx, kind, userID, word); err != nil {
		return err
	}
	c.mu.Lock()
	k := wordKey{kind, userID}
	if set, ok := c.st.words[k]; ok {
		delete(set, word)
		if len(set) == 0 {
			delete(c.st.words, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// EscalateWords applies initial += added to the listed words and returns the updated rules.
func (c *Cache) EscalateWords(ctx context.Context, kind storage.WordKind, userID string, words []string) ([]storage.WordRule, error) {
	rules, err := c.store.EscalateWords(ctx, kind, userID, words)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, r := range rules {
		c.st.putWord(r)
	}
	c.mu.Unlock()
	return rules, nil
}

func (c *Cache) SetGag(ctx context.Context, userID, style string) error {
	if err := c.store.PutGag(ctx, storage.GagAssignment{UserID: userID, Style: style}); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.gags[userID] = style
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveGag(ctx context.Context, userID string) error {
	if err := c.store.DeleteGag(ctx, userID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.st.gags, userID)
	c.mu.Unlock()
	return nil
}

func (c *Cache) IncrementOffense(ctx context.Context, userID string) (int64, error) {
	n, err := c.store.IncrementOffense(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.st.offenses[userID] = n
	c.mu.Unlock()
	return n, nil
}

func (c *Cache) PutSettings(ctx context.Context, us storage.UserSettings) error {
	if err := c.store.PutSettings(ctx, us); err != nil {
		return err
	}
	us.Actions = append([]string(nil), us.Actions...)
	c.mu.Lock()
	c.st.settings[us.UserID] = us
	c.mu.Unlock()
	return nil
}

func (c *Cache) SetAllowed(ctx context.Context, e storage.AllowEntry, allowed bool) error {
	var err error
	if allowed {
		err = c.store.PutAllow(ctx, e)
	} else {
		err = c.store.DeleteAllow(ctx, e)
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	if allowed {
		c.st.allowed[e] = struct{}{}
	} else {
		delete(c.st.allowed, e)
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) SetIgnored(ctx context.Context, userID string, ignored bool) error {
	var err error
	if ignored {
		err = c.store.PutIgnored(ctx, userID)
	} else {
		err = c.store.DeleteIgnored(ctx, userID)
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	if ignored {
		c.st.ignored[userID] = struct{}{}
	} else {
		delete(c.st.ignored, userID)
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) PutLines(ctx context.Context, a storage.LineAssignment) error {
	if err := c.store.PutLines(ctx, a); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.lines[a.UserID] = a
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveLines(ctx context.Context, userID string) error {
	if err := c.store.DeleteLines(ctx, userID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.st.lines, userID)
	c.mu.Unlock()
	return nil
}

func (c *Cache) PutFeedbackProfile(ctx context.Context, p storage.FeedbackProfile) error {
	if err := c.store.PutFeedbackProfile(ctx, p); err != nil {
		return err
	}
	c.mu.Lock()
	c.st.feedback[p.UserID] = p
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveFeedbackProfile(ctx context.Context, userID string) error {
	if err := c.store.DeleteFeedbackProfile(ctx, userID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.st.feedback, userID)
	c.mu.Unlock()
	return nil
}
