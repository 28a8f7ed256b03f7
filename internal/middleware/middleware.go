// Package middleware holds command decorators shared by every chat command.
package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/storage"
)

// Origin is implemented by command contexts that know where a call came from.
type Origin interface {
	GuildID() string
	ChannelID() string
	AuthorID() string
}

// HistoryStore persists command invocations.
type HistoryStore interface {
	AppendCommandToHistory(ctx context.Context, rec storage.CommandHistoryRecord) error
}

// Recorder is an Origin that can also log and record history.
type Recorder interface {
	Origin
	History() HistoryStore
	Logger() *zap.Logger
}

// Managed is an Origin that can tell whether its author is a manager.
type Managed interface {
	Origin
	IsManager(userID string) bool
}
