package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
)

// reveal remembers what a gagged replacement message stands for.
type reveal struct {
	AuthorID  string
	ChannelID string
	Original  string
	Style     gag.Style
	Expires   time.Time
}

type reveals struct {
	mu sync.Mutex
	m  map[string]reveal
}

func newReveals() *reveals {
	return &reveals{m: make(map[string]reveal)}
}

func (r *reveals) put(messageID string, rv reveal) {
	r.mu.Lock()
	r.m[messageID] = rv
	r.mu.Unlock()
}

func (r *reveals) get(messageID string, now time.Time) (reveal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.m[messageID]
	if !ok || now.After(rv.Expires) {
		return reveal{}, false
	}
	return rv, true
}

func (r *reveals) drop(messageID string) {
	r.mu.Lock()
	delete(r.m, messageID)
	r.mu.Unlock()
}

// prune removes expired entries and returns how many were dropped.
func (r *reveals) prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rv := range r.m {
		if now.After(rv.Expires) {
			delete(r.m, id)
			n++
		}
	}
	return n
}

func (r *reveals) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// HandleReaction serves the reveal and delete controls on gagged messages and
// otherwise may send an ambient feedback signal to the reacted-to author.
func (p *Pipeline) HandleReaction(ctx context.Context, r gateway.Reaction) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("panic while handling reaction", zap.Any("panic", rec),
				zap.String("message", r.MessageID), zap.Stack("stack"))
		}
	}()
	if r.ReactorID == "" {
		return
	}

	switch r.Emoji {
	case EmojiReveal:
		if rv, ok := p.reveals.get(r.MessageID, p.now()); ok {
			p.revealTo(ctx, r.ReactorID, rv)
			return
		}
	case EmojiDelete:
		if rv, ok := p.reveals.get(r.MessageID, p.now()); ok {
			if r.ReactorID != rv.AuthorID && !p.opts.IsManager(r.ReactorID) {
				return
			}
			if err := p.sink.DeleteMessage(ctx, r.ChannelID, r.MessageID); err != nil {
				p.log.Warn("delete gagged message failed", zap.String("message", r.MessageID), zap.Error(err))
				return
			}
			p.reveals.drop(r.MessageID)
			return
		}
	}

	p.ambientFeedback(r)
}

func (p *Pipeline) revealTo(ctx context.Context, reactorID string, rv reveal) {
	text := clip(fmt.Sprintf("🔍 <@%s> actually said (%s):\n> %s", rv.AuthorID, rv.Style, rv.Original), maxMessageLength)
	if err := p.sink.SendDirect(ctx, reactorID, text); err != nil {
		p.log.Debug("reveal DM failed", zap.String("reactor", reactorID), zap.Error(err))
	}
}

// ambientFeedback occasionally signals the author of a reacted-to message, unless
// the author is exempt in that channel.
func (p *Pipeline) ambientFeedback(r gateway.Reaction) {
	target := r.MessageAuthorID
	if target == "" || target == r.ReactorID || p.opts.ReactionChance <= 0 {
		return
	}
	if p.feedback == nil || !p.feedback.Registered(target) {
		return
	}
	if p.cache.IsAllowed(target, r.ChannelID) {
		return
	}
	if p.rand() >= p.opts.ReactionChance {
		return
	}
	p.fire(target, "reaction received")
}

// Run prunes expired reveal entries until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	every := p.opts.RevealTTL / 4
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.reveals.prune(p.now()); n > 0 {
				p.log.Debug("pruned reveal entries", zap.Int("count", n))
			}
		}
	}
}
