// Package pipeline runs every inbound message through the restriction policies in
// a fixed order and applies the consequence of the first one that blocks.
package pipeline

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/cache"
	"github.com/keshon/server-warden/internal/feedback"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
)

// Dispatcher receives messages that passed every policy.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg gateway.Message)
}

// AuditLog records one row per word violation.
type AuditLog interface {
	RecordOffenseEvent(ctx context.Context, ev storage.OffenseEvent) (string, error)
}

type Feedback interface {
	Registered(userID string) bool
	Apply(ctx context.Context, userID string, intensity, duration int) feedback.Result
}

type Options struct {
	Prefix             string
	DefaultStyle       gag.Style
	WarningTTL         time.Duration
	CooldownCeiling    time.Duration
	ViolationIntensity int
	ViolationDuration  int
	ReactionChance     float64
	RevealTTL          time.Duration
	FeedbackTimeout    time.Duration
	IsManager          func(userID string) bool
}

type Deps struct {
	Cache      *cache.Cache
	Sink       gateway.Sink
	Audit      AuditLog
	Feedback   Feedback
	Dispatcher Dispatcher
	Log        *zap.Logger
	// Now and Rand default to time.Now and rand.Float64.
	Now  func() time.Time
	Rand func() float64
}

type Pipeline struct {
	cache    *cache.Cache
	sink     gateway.Sink
	audit    AuditLog
	feedback Feedback
	dispatch Dispatcher
	log      *zap.Logger
	now      func() time.Time
	rand     func() float64
	opts     Options

	reveals *reveals
	wg      sync.WaitGroup
}

func New(d Deps, opts Options) *Pipeline {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.Float64
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	if opts.DefaultStyle == gag.None {
		opts.DefaultStyle = gag.Ball
	}
	if opts.RevealTTL <= 0 {
		opts.RevealTTL = time.Hour
	}
	if opts.FeedbackTimeout <= 0 {
		opts.FeedbackTimeout = 10 * time.Second
	}
	if opts.IsManager == nil {
		opts.IsManager = func(string) bool { return false }
	}
	return &Pipeline{
		cache:    d.Cache,
		sink:     d.Sink,
		audit:    d.Audit,
		feedback: d.Feedback,
		dispatch: d.Dispatcher,
		log:      d.Log.Named("pipeline"),
		now:      d.Now,
		rand:     d.Rand,
		opts:     opts,
		reveals:  newReveals(),
	}
}

// Process evaluates one message and returns the policy that handled it, or ""
// when the message passed through. It never panics.
func (p *Pipeline) Process(ctx context.Context, msg gateway.Message) (handled policy.Name) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic while processing message",
				zap.Any("panic", r), zap.String("user", msg.AuthorID),
				zap.String("message", msg.ID), zap.Stack("stack"))
			handled = ""
		}
	}()
	return p.process(ctx, msg)
}

func (p *Pipeline) process(ctx context.Context, msg gateway.Message) policy.Name {
	if msg.AuthorIsBot || !msg.InGuild() || msg.HasAttachments || msg.HasStickers {
		return ""
	}
	user := msg.AuthorID
	if p.cache.IsIgnored(user) {
		return ""
	}
	isCommand := strings.HasPrefix(strings.TrimSpace(msg.Content), p.opts.Prefix)

	// Line-writing and prison containment apply to command-shaped text too.
	if d := policy.Lines(p.cache, user, msg.ChannelID, msg.Content); d.Verdict != policy.Allow {
		p.applyLines(ctx, msg, d)
		if d.Blocks() {
			return d.Policy
		}
	}
	if d := policy.Prison(p.cache, user, msg.ChannelID); d.Blocks() {
		p.applyPrison(ctx, msg, d)
		return d.Policy
	}

	if isCommand {
		p.forward(ctx, msg)
		return ""
	}

	if d := policy.Enforcement(p.cache, user, msg.Content); d.Blocks() {
		p.applyWords(ctx, msg, d, storage.KindEnforced)
		return d.Policy
	}
	if d := policy.Ban(p.cache, user, msg.Content); d.Blocks() {
		p.applyWords(ctx, msg, d, storage.KindBanned)
		return d.Policy
	}

	now := p.now()
	if d := policy.Cooldown(p.cache, user, now); d.Blocks() {
		p.applyCooldown(ctx, msg, d)
		return d.Policy
	}
	if err := p.cache.TouchLastMessage(ctx, user, now); err != nil {
		p.log.Warn("refresh last message failed", zap.String("user", user), zap.Error(err))
	}

	if d := policy.Gag(p.cache, user, msg.Content, p.opts.DefaultStyle); d.Blocks() {
		p.applyGag(ctx, msg, d)
		return d.Policy
	}

	p.forward(ctx, msg)
	return ""
}

func (p *Pipeline) forward(ctx context.Context, msg gateway.Message) {
	if p.dispatch != nil {
		p.dispatch.Dispatch(ctx, msg)
	}
}

// fire sends a feedback signal in the background. Failures are only logged.
func (p *Pipeline) fire(userID, why string) {
	if p.feedback == nil || !p.feedback.Registered(userID) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 3*p.opts.FeedbackTimeout)
		defer cancel()
		res := p.feedback.Apply(ctx, userID, p.opts.ViolationIntensity, p.opts.ViolationDuration)
		if !res.Success {
			p.log.Warn("feedback not applied", zap.String("user", userID),
				zap.String("reason", why), zap.String("result", res.Message))
		}
	}()
}

// Wait blocks until background feedback calls have finished.
func (p *Pipeline) Wait() { p.wg.Wait() }
