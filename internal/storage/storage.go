// /internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const commandHistoryLimit = 200

// Storage is the durable source of truth for every restriction domain.
type Storage struct {
	db *sqlx.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS locks (
		user_id   TEXT PRIMARY KEY,
		locked_by TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prisoners (
		user_id         TEXT PRIMARY KEY,
		channel_id      TEXT NOT NULL,
		entered_balance INTEGER NOT NULL DEFAULT 0,
		entered_at      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS solitary (
		user_id     TEXT PRIMARY KEY,
		thread_id   TEXT NOT NULL,
		archived_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS cooldowns (
		user_id         TEXT PRIMARY KEY,
		seconds         INTEGER NOT NULL,
		last_message_ms INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS words (
		kind         TEXT NOT NULL,
		user_id      TEXT NOT NULL,
		word         TEXT NOT NULL,
		initial_time INTEGER NOT NULL,
		added_time   INTEGER NOT NULL,
		PRIMARY KEY (kind, user_id, word)
	)`,
	`CREATE TABLE IF NOT EXISTS gags (
		user_id TEXT PRIMARY KEY,
		style   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offenses (
		user_id TEXT PRIMARY KEY,
		count   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS offense_events (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		kind            TEXT NOT NULL,
		words           TEXT NOT NULL,
		offense_number  INTEGER NOT NULL,
		timeout_seconds INTEGER NOT NULL,
		applied         INTEGER NOT NULL,
		created_at      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		user_id   TEXT PRIMARY KEY,
		actions   TEXT NOT NULL DEFAULT '',
		gag_style TEXT NOT NULL DEFAULT '',
		auth_mode TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id    TEXT PRIMARY KEY,
		balance    INTEGER NOT NULL,
		last_daily INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS allow_list (
		user_id    TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		PRIMARY KEY (user_id, channel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ignored (
		user_id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		user_id     TEXT PRIMARY KEY,
		line        TEXT NOT NULL,
		remaining   INTEGER NOT NULL,
		penalty     INTEGER NOT NULL,
		channel_id  TEXT NOT NULL,
		assigned_by TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_profiles (
		user_id   TEXT PRIMARY KEY,
		code      TEXT NOT NULL,
		intensity INTEGER NOT NULL,
		duration  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS command_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id   TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		command    TEXT NOT NULL,
		args       TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
}

// New opens (or creates) the SQLite database at filePath and applies the schema.
func New(filePath string) (*Storage, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", filePath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
