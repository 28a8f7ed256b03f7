// Package moderation holds the restricted operations behind the chat commands.
// Every operation that changes another member's restrictions passes the
// authorization guard before touching state.
package moderation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/cache"
	"github.com/keshon/server-warden/internal/feedback"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/internal/voice"
)

// Request identifies who is acting on whom and where.
type Request struct {
	Invoker   string
	Target    string
	GuildID   string
	ChannelID string
}

func (r Request) self() bool { return r.Invoker == r.Target }

type Authorizer interface {
	Authorize(ctx context.Context, invokerID, targetID, action string) error
	IsManager(userID string) bool
}

type Purse interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Spend(ctx context.Context, userID string, amount int64) (int64, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
}

// SolitaryStore keeps thread bookkeeping, which the hot cache does not mirror.
type SolitaryStore interface {
	Solitary(ctx context.Context, userID string) (*storage.SolitaryRecord, error)
	PutSolitary(ctx context.Context, rec storage.SolitaryRecord) error
}

type Flicker interface {
	Start(parent context.Context, guildID, userID string, mode voice.Mode) error
	Stop(ctx context.Context, guildID, userID string) error
	Status() string
}

type FeedbackDevice interface {
	Apply(ctx context.Context, userID string, intensity, duration int) feedback.Result
}

type Options struct {
	DefaultStyle      gag.Style
	CooldownDefault   time.Duration
	CooldownCeiling   time.Duration
	WordInitial       int64
	WordAdded         int64
	FreedomPrice      int64
	LinesChannelID    string
	LinesMaxCount     int64
	SentinelManagerID string
}

type Deps struct {
	Cache    *cache.Cache
	Solitary SolitaryStore
	Sink     gateway.Sink
	Guard    Authorizer
	Wallet   Purse
	Voice    Flicker
	Feedback FeedbackDevice
	Log      *zap.Logger
	Now      func() time.Time
}

type Service struct {
	cache    *cache.Cache
	solitary SolitaryStore
	sink     gateway.Sink
	guard    Authorizer
	wallet   Purse
	voice    Flicker
	feedback FeedbackDevice
	log      *zap.Logger
	now      func() time.Time
	opts     Options
}

func New(d Deps, opts Options) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if opts.DefaultStyle == gag.None {
		opts.DefaultStyle = gag.Ball
	}
	if opts.CooldownDefault <= 0 {
		opts.CooldownDefault = 30 * time.Second
	}
	if opts.CooldownCeiling <= 0 {
		opts.CooldownCeiling = 24 * time.Hour
	}
	if opts.LinesMaxCount <= 0 {
		opts.LinesMaxCount = 500
	}
	return &Service{
		cache:    d.Cache,
		solitary: d.Solitary,
		sink:     d.Sink,
		guard:    d.Guard,
		wallet:   d.Wallet,
		voice:    d.Voice,
		feedback: d.Feedback,
		log:      d.Log,
		now:      d.Now,
		opts:     opts,
	}
}

func (s *Service) IsManager(userID string) bool { return s.guard.IsManager(userID) }

func (s *Service) requireManager(userID string) error {
	if !s.guard.IsManager(userID) {
		return gateway.ErrPermissionDenied
	}
	return nil
}

// Reload rebuilds the hot cache from the store.
func (s *Service) Reload(ctx context.Context, invokerID string) (map[string]int, error) {
	if err := s.requireManager(invokerID); err != nil {
		return nil, err
	}
	if err := s.cache.Load(ctx); err != nil {
		return nil, err
	}
	s.log.Info("cache reloaded", zap.String("by", invokerID))
	return s.cache.Stats(), nil
}

// VoiceStatus reports voice jobs to managers.
func (s *Service) VoiceStatus(invokerID string) (string, error) {
	if err := s.requireManager(invokerID); err != nil {
		return "", err
	}
	return s.voice.Status(), nil
}

func (s *Service) memberName(ctx context.Context, guildID, userID string) string {
	if name, err := s.sink.MemberName(ctx, guildID, userID); err == nil && name != "" {
		return name
	}
	return userID
}
