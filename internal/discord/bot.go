// Package discord connects the bot to Discord: it turns gateway events into
// pipeline calls and implements the outbound gateway.Sink.
package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
)

// Processor is the message pipeline.
type Processor interface {
	Process(ctx context.Context, msg gateway.Message) policy.Name
	HandleReaction(ctx context.Context, r gateway.Reaction)
}

// Inbox receives direct-message replies to pending consent requests.
type Inbox interface {
	Deliver(userID, content string) bool
}

// VoiceReleaser stops voice effects on members who leave voice and finishes
// restores that could not be applied while they were away.
type VoiceReleaser interface {
	Stop(ctx context.Context, guildID, userID string) error
	Restore(ctx context.Context, guildID, userID string) error
}

type Options struct {
	Token          string
	GuildBlacklist []string
}

// Bot is a Discord bot
type Bot struct {
	dg    *discordgo.Session
	opts  Options
	log   *zap.Logger
	sink  *Sink
	proc  Processor
	inbox Inbox
	voice VoiceReleaser

	mu  sync.RWMutex
	ctx context.Context
}

// New creates the session without connecting. Wire the pipeline with Attach
// before calling Run.
func New(opts Options, log *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll
	dg.State.MaxMessageCount = 500

	return &Bot{
		dg:   dg,
		opts: opts,
		log:  log.Named("bot"),
		sink: NewSink(dg, log),
		ctx:  context.Background(),
	}, nil
}

// Sink exposes the outbound side so services can be built before Run.
func (b *Bot) Sink() *Sink { return b.sink }

func (b *Bot) Attach(proc Processor, inbox Inbox, voice VoiceReleaser) {
	b.proc = proc
	b.inbox = inbox
	b.voice = voice
}

// Run connects and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if b.proc == nil {
		return errors.New("bot has no processor attached")
	}
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onMessageReactionAdd)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info("shutdown signal received, closing session")
	return nil
}

func (b *Bot) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.opts.GuildBlacklist, guildID)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID, name string) bool {
	if !b.isGuildBlacklisted(guildID) {
		return false
	}
	b.log.Info("leaving blacklisted guild", zap.String("guild", guildID), zap.String("name", name))
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error("failed to leave guild", zap.String("guild", guildID), zap.Error(err))
	}
	return true
}
