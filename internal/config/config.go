// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required,notEmpty"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	StoragePath           string   `env:"STORAGE_PATH" envDefault:"data/warden.db"`
	CommandPrefix         string   `env:"COMMAND_PREFIX" envDefault:"!"`
	DeveloperID           string   `env:"DEVELOPER_ID"`
	ManagerIDs            []string `env:"MANAGER_IDS" envSeparator:","`
	SentinelManagerID     string   `env:"SENTINEL_MANAGER_ID"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	GagDefaultStyle string        `env:"GAG_DEFAULT_STYLE" envDefault:"ball"`
	GagRevealTTL    time.Duration `env:"GAG_REVEAL_TTL" envDefault:"1h"`

	CooldownDefault time.Duration `env:"COOLDOWN_DEFAULT" envDefault:"30s"`
	CooldownCeiling time.Duration `env:"COOLDOWN_CEILING" envDefault:"24h"`

	WordInitialSeconds int64         `env:"WORD_INITIAL_SECONDS" envDefault:"60"`
	WordAddedSeconds   int64         `env:"WORD_ADDED_SECONDS" envDefault:"30"`
	WarningTTL         time.Duration `env:"WARNING_TTL" envDefault:"10s"`

	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"60s"`

	WalletDefaultBalance int64 `env:"WALLET_DEFAULT_BALANCE" envDefault:"1000"`
	WalletDailyAmount    int64 `env:"WALLET_DAILY_AMOUNT" envDefault:"250"`
	FreedomPrice         int64 `env:"FREEDOM_PRICE" envDefault:"5000"`

	LinesChannelID string `env:"LINES_CHANNEL_ID"`
	LinesMaxCount  int64  `env:"LINES_MAX_COUNT" envDefault:"500"`

	FeedbackURL                string        `env:"FEEDBACK_URL"`
	FeedbackAPIKey             string        `env:"FEEDBACK_API_KEY"`
	FeedbackTimeout            time.Duration `env:"FEEDBACK_TIMEOUT" envDefault:"10s"`
	FeedbackReactionChance     float64       `env:"FEEDBACK_REACTION_CHANCE" envDefault:"0.1"`
	FeedbackViolationIntensity int           `env:"FEEDBACK_VIOLATION_INTENSITY" envDefault:"25"`
	FeedbackViolationDuration  int           `env:"FEEDBACK_VIOLATION_DURATION" envDefault:"1"`

	VoiceInterval time.Duration `env:"VOICE_INTERVAL" envDefault:"3s"`

	// AuditRetention bounds how long offense audit rows are kept; zero keeps them forever.
	AuditRetention time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.ManagerIDs = compact(c.ManagerIDs)
	c.DiscordGuildBlacklist = compact(c.DiscordGuildBlacklist)
	if c.SentinelManagerID == "" && len(c.ManagerIDs) > 0 {
		c.SentinelManagerID = c.ManagerIDs[0]
	}
	if c.SentinelManagerID == "" {
		c.SentinelManagerID = c.DeveloperID
	}
	if c.CommandPrefix == "" {
		c.CommandPrefix = "!"
	}
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsDeveloper reports whether userID is the configured developer.
func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

// IsManager reports whether userID belongs to the authorized-manager set.
// The developer is always a manager.
func IsManager(cfg *Config, userID string) bool {
	if cfg == nil || userID == "" {
		return false
	}
	return IsDeveloper(cfg, userID) || slices.Contains(cfg.ManagerIDs, userID)
}
