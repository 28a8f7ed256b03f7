// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/server-warden/internal/auth"
	"github.com/keshon/server-warden/internal/cache"
	"github.com/keshon/server-warden/internal/command"
	"github.com/keshon/server-warden/internal/config"
	"github.com/keshon/server-warden/internal/discord"
	"github.com/keshon/server-warden/internal/economy"
	"github.com/keshon/server-warden/internal/feedback"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/logging"
	"github.com/keshon/server-warden/internal/moderation"
	"github.com/keshon/server-warden/internal/pipeline"
	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/internal/voice"
	"github.com/keshon/server-warden/pkg/jobmgr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("warden exited with error", zap.Error(err))
	}
	logger.Info("discord bot exited cleanly")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	style, err := gag.Parse(cfg.GagDefaultStyle)
	if err != nil {
		return fmt.Errorf("GAG_DEFAULT_STYLE: %w", err)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer store.Close()

	hot := cache.New(store)
	if err := hot.Load(ctx); err != nil {
		return fmt.Errorf("load hot cache: %w", err)
	}
	logger.Info("hot cache loaded", zap.Any("sizes", hot.Stats()))

	bot, err := discord.New(discord.Options{
		Token:          cfg.DiscordToken,
		GuildBlacklist: cfg.DiscordGuildBlacklist,
	}, logger)
	if err != nil {
		return err
	}
	sink := bot.Sink()
	if cfg.SentinelManagerID == "" {
		logger.Warn("no MANAGER_IDS, DEVELOPER_ID or SENTINEL_MANAGER_ID set; members cannot lock themselves")
	}
	isManager := func(userID string) bool { return config.IsManager(cfg, userID) }

	jobs := jobmgr.NewManager(func(msg string) { logger.Debug("voice job", zap.String("event", msg)) })
	oscillator := voice.NewOscillator(sink, jobs, cfg.VoiceInterval, logger)
	broker := auth.NewBroker()
	guard := auth.NewGuard(hot, sink, broker, isManager, cfg.HandshakeTimeout, logger)
	wallet := economy.NewWallet(store, cfg.WalletDefaultBalance, cfg.WalletDailyAmount, nil)
	device := feedback.New(cfg.FeedbackURL, cfg.FeedbackAPIKey, cfg.FeedbackTimeout, hot, logger)

	mod := moderation.New(moderation.Deps{
		Cache:    hot,
		Solitary: store,
		Sink:     sink,
		Guard:    guard,
		Wallet:   wallet,
		Voice:    oscillator,
		Feedback: device,
		Log:      logger,
	}, moderation.Options{
		DefaultStyle:      style,
		CooldownDefault:   cfg.CooldownDefault,
		CooldownCeiling:   cfg.CooldownCeiling,
		WordInitial:       cfg.WordInitialSeconds,
		WordAdded:         cfg.WordAddedSeconds,
		FreedomPrice:      cfg.FreedomPrice,
		LinesChannelID:    cfg.LinesChannelID,
		LinesMaxCount:     cfg.LinesMaxCount,
		SentinelManagerID: cfg.SentinelManagerID,
	})

	router := command.NewRouter(nil, &command.Services{
		Moderation: mod,
		Wallet:     wallet,
		Cache:      hot,
		Audit:      store,
		History:    store,
		Sink:       sink,
		Log:        logger,
		Prefix:     cfg.CommandPrefix,
		WarningTTL: cfg.WarningTTL,
	})

	pipe := pipeline.New(pipeline.Deps{
		Cache:      hot,
		Sink:       sink,
		Audit:      store,
		Feedback:   device,
		Dispatcher: router,
		Log:        logger,
	}, pipeline.Options{
		Prefix:             cfg.CommandPrefix,
		DefaultStyle:       style,
		WarningTTL:         cfg.WarningTTL,
		CooldownCeiling:    cfg.CooldownCeiling,
		ViolationIntensity: cfg.FeedbackViolationIntensity,
		ViolationDuration:  cfg.FeedbackViolationDuration,
		ReactionChance:     cfg.FeedbackReactionChance,
		RevealTTL:          cfg.GagRevealTTL,
		FeedbackTimeout:    cfg.FeedbackTimeout,
		IsManager:          isManager,
	})
	bot.Attach(pipe, broker, oscillator)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error {
		pipe.Run(gctx)
		return nil
	})
	g.Go(func() error {
		storage.RunAuditCleaner(gctx, store, cfg.AuditRetention, logger.Named("janitor"))
		return nil
	})
	logger.Info("starting warden", zap.String("prefix", cfg.CommandPrefix), zap.String("storage", cfg.StoragePath))
	runErr := g.Wait()

	shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := oscillator.StopAll(shutdown); err != nil {
		logger.Warn("voice effects not fully restored", zap.Error(err))
	}
	if err := jobs.StopAll(shutdown); err != nil {
		logger.Warn("voice jobs did not settle", zap.Error(err))
	}
	pipe.Wait()
	return runErr
}
