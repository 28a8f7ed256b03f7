// Package voice flickers a member's server mute or deafen state on an interval.
// Each oscillation is a named job; stopping one leaves the member unmuted and
// undeafened, or remembers the restore until the member is back in voice.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/pkg/jobmgr"
)

type Mode string

const (
	Mute   Mode = "mute"
	Deafen Mode = "deafen"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Mute:
		return Mute, nil
	case Deafen:
		return Deafen, nil
	}
	return "", gateway.Validationf("unknown voice mode %q, use mute or deafen", s)
}

type key struct {
	guild, user string
}

func (k key) job() string { return "voice:" + k.guild + ":" + k.user }

type Oscillator struct {
	sink     gateway.Sink
	jobs     *jobmgr.Manager
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	active map[key]Mode
	// pending holds restores Discord refused, usually because the member had
	// already left voice.
	pending map[key]Mode
}

func NewOscillator(sink gateway.Sink, jobs *jobmgr.Manager, interval time.Duration, log *zap.Logger) *Oscillator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Oscillator{
		sink:     sink,
		jobs:     jobs,
		interval: interval,
		log:      log,
		active:   make(map[key]Mode),
		pending:  make(map[key]Mode),
	}
}

// Start begins toggling. The job lives until Stop or until parent ends.
func (o *Oscillator) Start(parent context.Context, guildID, userID string, mode Mode) error {
	k := key{guildID, userID}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.active[k]; ok {
		return gateway.Conflictf("<@%s> is already flickering", userID)
	}
	err := o.jobs.Start(parent, k.job(), func(ctx context.Context) error {
		return o.loop(ctx, k, mode)
	})
	if errors.Is(err, jobmgr.ErrRunning) {
		return gateway.Conflictf("<@%s> is still settling, try again", userID)
	}
	if err != nil {
		return err
	}
	o.active[k] = mode
	delete(o.pending, k)
	return nil
}

func (o *Oscillator) loop(ctx context.Context, k key, mode Mode) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	on := true
	for {
		if err := o.set(ctx, k, mode, on); err != nil {
			if errors.Is(err, gateway.ErrNotFound) || errors.Is(err, gateway.ErrPermissionDenied) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.Warn("voice toggle failed", zap.String("user", k.user), zap.String("mode", string(mode)), zap.Error(err))
		}
		on = !on

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *Oscillator) set(ctx context.Context, k key, mode Mode, on bool) error {
	if mode == Deafen {
		return o.sink.VoiceDeafen(ctx, k.guild, k.user, on)
	}
	return o.sink.VoiceMute(ctx, k.guild, k.user, on)
}

// Stop cancels the oscillation, waits for it to exit, then restores the member.
func (o *Oscillator) Stop(ctx context.Context, guildID, userID string) error {
	k := key{guildID, userID}

	o.mu.Lock()
	mode, ok := o.active[k]
	delete(o.active, k)
	o.mu.Unlock()
	if !ok {
		return gateway.NotFoundf("<@%s> is not flickering", userID)
	}

	if err := o.jobs.Stop(ctx, k.job()); err != nil && !errors.Is(err, jobmgr.ErrNotRunning) {
		return fmt.Errorf("stop voice job: %w", err)
	}

	// The job may have exited early on its own; restore regardless.
	if err := o.set(context.WithoutCancel(ctx), k, mode, false); err != nil {
		o.mu.Lock()
		o.pending[k] = mode
		o.mu.Unlock()
		return fmt.Errorf("restore %s: %w", mode, err)
	}
	return nil
}

// Restore retries a restore that failed in Stop. It is called when the member
// joins voice again and reports ErrNotFound when nothing is owed.
func (o *Oscillator) Restore(ctx context.Context, guildID, userID string) error {
	k := key{guildID, userID}

	o.mu.Lock()
	mode, ok := o.pending[k]
	o.mu.Unlock()
	if !ok {
		return gateway.NotFoundf("<@%s> has no pending restore", userID)
	}

	if err := o.set(ctx, k, mode, false); err != nil {
		return fmt.Errorf("restore %s: %w", mode, err)
	}
	o.mu.Lock()
	if o.pending[k] == mode {
		delete(o.pending, k)
	}
	o.mu.Unlock()
	o.log.Info("voice state restored on rejoin", zap.String("user", userID), zap.String("mode", string(mode)))
	return nil
}

func (o *Oscillator) Active(guildID, userID string) (Mode, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.active[key{guildID, userID}]
	return m, ok
}

// Status lists running jobs, oscillations whose job already exited, and
// restores still owed.
func (o *Oscillator) Status() string {
	var stale, owed []string

	o.mu.Lock()
	for k, m := range o.active {
		if !o.jobs.Running(k.job()) {
			stale = append(stale, fmt.Sprintf("<@%s> %s", k.user, m))
		}
	}
	for k, m := range o.pending {
		owed = append(owed, fmt.Sprintf("<@%s> %s", k.user, m))
	}
	o.mu.Unlock()
	sort.Strings(stale)
	sort.Strings(owed)

	lines := []string{o.jobs.Status()}
	if len(stale) > 0 {
		lines = append(lines, "Exited early: "+strings.Join(stale, ", "))
	}
	if len(owed) > 0 {
		lines = append(lines, "Restore on rejoin: "+strings.Join(owed, ", "))
	}
	return strings.Join(lines, "\n")
}

// StopAll is used at shutdown.
func (o *Oscillator) StopAll(ctx context.Context) error {
	o.mu.Lock()
	keys := make([]key, 0, len(o.active))
	for k := range o.active {
		keys = append(keys, k)
	}
	o.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := o.Stop(ctx, k.guild, k.user); err != nil && !errors.Is(err, gateway.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
