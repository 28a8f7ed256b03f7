// Package auth decides whether an invoker may run a restricted operation on a target.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
)

// Auth modes stored in user settings.
const (
	ModeAsk  = "ask"
	ModeAuto = "auto"
	ModeDeny = "deny"
)

func ParseMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case ModeAsk, ModeAuto, ModeDeny:
		return m, nil
	}
	return "", gateway.Validationf("auth mode must be ask, auto or deny")
}

// State is what the guard reads from the hot cache.
type State interface {
	LockedBy(userID string) (string, bool)
	Settings(userID string) storage.UserSettings
}

type Guard struct {
	state     State
	sink      gateway.Sink
	broker    *Broker
	isManager func(userID string) bool
	timeout   time.Duration
	log       *zap.Logger
}

func NewGuard(state State, sink gateway.Sink, broker *Broker, isManager func(string) bool, timeout time.Duration, log *zap.Logger) *Guard {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Guard{
		state:     state,
		sink:      sink,
		broker:    broker,
		isManager: isManager,
		timeout:   timeout,
		log:       log.Named("auth"),
	}
}

func (g *Guard) IsManager(userID string) bool { return g.isManager(userID) }

// Authorize returns nil when invoker may perform action on target.
//
// Locks are checked first: a locked invoker or target is refused unless the
// invoker is a manager, whatever the target's auth mode. After that managers
// and self-targeting pass, and other invokers need the target's consent.
func (g *Guard) Authorize(ctx context.Context, invokerID, targetID, action string) error {
	manager := g.isManager(invokerID)
	if !manager {
		if _, locked := g.state.LockedBy(targetID); locked {
			return fmt.Errorf("%w: <@%s> is %w", gateway.ErrPermissionDenied, targetID, gateway.ErrLocked)
		}
		if _, locked := g.state.LockedBy(invokerID); locked {
			return fmt.Errorf("%w: you are %w", gateway.ErrPermissionDenied, gateway.ErrLocked)
		}
	}
	if manager || invokerID == targetID {
		return nil
	}

	mode := g.state.Settings(targetID).AuthMode
	switch mode {
	case ModeAuto:
		return nil
	case ModeDeny:
		return fmt.Errorf("%w: <@%s> does not accept requests", gateway.ErrDenied, targetID)
	default:
		return g.handshake(ctx, invokerID, targetID, action)
	}
}

func (g *Guard) handshake(ctx context.Context, invokerID, targetID, action string) error {
	req, err := g.broker.Open(targetID)
	if err != nil {
		return err
	}
	defer req.Close()

	reqID := uuid.NewString()[:8]
	prompt := fmt.Sprintf("🔐 [%s] <@%s> wants to **%s** you. Reply `yes` or `no` within %s.",
		reqID, invokerID, action, g.timeout.Round(time.Second))
	if err := g.sink.SendDirect(ctx, targetID, prompt); err != nil {
		g.log.Warn("consent prompt failed", zap.String("request", reqID), zap.String("target", targetID), zap.Error(err))
		return fmt.Errorf("%w: could not reach <@%s>", gateway.ErrDenied, targetID)
	}

	reply, err := req.Wait(ctx, g.timeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.log.Info("consent timed out", zap.String("request", reqID), zap.String("target", targetID))
			return fmt.Errorf("%w: <@%s> did not answer", gateway.ErrDenied, targetID)
		}
		return err
	}
	if !affirmative(reply) {
		return fmt.Errorf("%w: <@%s> said no", gateway.ErrDenied, targetID)
	}
	g.log.Info("consent given", zap.String("request", reqID), zap.String("invoker", invokerID),
		zap.String("target", targetID), zap.String("action", action))
	return nil
}

func affirmative(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "yes", "y", "ok", "sure", "yes please":
		return true
	}
	return false
}
