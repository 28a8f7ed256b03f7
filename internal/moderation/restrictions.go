package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/internal/voice"
)

// Gag assigns a style; the ungag keyword lifts the gag instead.
// An empty style uses the target's preference or the default.
func (s *Service) Gag(ctx context.Context, req Request, styleName string) (gag.Style, error) {
	if strings.EqualFold(strings.TrimSpace(styleName), gag.Ungag) {
		return gag.None, s.Ungag(ctx, req)
	}
	style, err := s.pickStyle(req.Target, styleName)
	if err != nil {
		return gag.None, err
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "gag ("+style.String()+")"); err != nil {
		return gag.None, err
	}
	return style, s.cache.SetGag(ctx, req.Target, style.String())
}

func (s *Service) pickStyle(userID, name string) (gag.Style, error) {
	if strings.TrimSpace(name) != "" {
		return parseStyle(name)
	}
	if pref := s.cache.Settings(userID).GagStyle; pref != "" {
		if style, err := gag.Parse(pref); err == nil {
			return style, nil
		}
	}
	return s.opts.DefaultStyle, nil
}

func parseStyle(name string) (gag.Style, error) {
	style, err := gag.Parse(name)
	if err != nil {
		return gag.None, gateway.Validationf("%v, pick one of: %s", err, strings.Join(gag.Names(), ", "))
	}
	return style, nil
}

func (s *Service) Ungag(ctx context.Context, req Request) error {
	if _, ok := s.cache.Gag(req.Target); !ok {
		return gateway.NotFoundf("<@%s> is not gagged", req.Target)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "ungag"); err != nil {
		return err
	}
	return s.cache.RemoveGag(ctx, req.Target)
}

// Lock toggles the target's lock. Removal is reserved for managers and the
// member who placed it. A non-manager locking themselves is recorded under the
// sentinel manager and is refused when none is configured.
func (s *Service) Lock(ctx context.Context, req Request) (locked bool, err error) {
	manager := s.guard.IsManager(req.Invoker)

	if by, ok := s.cache.LockedBy(req.Target); ok {
		if !manager && by != req.Invoker {
			return true, gateway.Conflictf("<@%s> is locked and only a manager can unlock", req.Target)
		}
		return false, s.cache.RemoveLock(ctx, req.Target)
	}

	selfLock := req.self() && !manager
	if selfLock && s.opts.SentinelManagerID == "" {
		return false, gateway.Conflictf("self-locking needs a manager to hold the key, and none is configured")
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "lock"); err != nil {
		return false, err
	}
	lockedBy := req.Invoker
	if selfLock {
		lockedBy = s.opts.SentinelManagerID
	}
	return true, s.cache.SetLock(ctx, req.Target, lockedBy)
}

// Cooldown with a nil seconds toggles between off and the default.
func (s *Service) Cooldown(ctx context.Context, req Request, seconds *int64) (int64, error) {
	ceiling := int64(s.opts.CooldownCeiling / time.Second)
	var next int64
	if seconds == nil {
		if current, _ := s.cache.Cooldown(req.Target); current == 0 {
			next = int64(s.opts.CooldownDefault / time.Second)
		}
	} else {
		if *seconds < 0 || *seconds > ceiling {
			return 0, gateway.Validationf("cooldown must be between 0 and %d seconds", ceiling)
		}
		next = *seconds
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "cooldown"); err != nil {
		return 0, err
	}
	return next, s.cache.SetCooldown(ctx, req.Target, next, s.now())
}

type LinesRequest struct {
	Line      string
	Count     int64
	Penalty   int64
	ChannelID string
}

func (s *Service) Lines(ctx context.Context, req Request, lr LinesRequest) (storage.LineAssignment, error) {
	lr.Line = strings.TrimSpace(lr.Line)
	switch {
	case lr.Line == "":
		return storage.LineAssignment{}, gateway.Validationf("the line to write is missing")
	case lr.Count < 1 || lr.Count > s.opts.LinesMaxCount:
		return storage.LineAssignment{}, gateway.Validationf("count must be between 1 and %d", s.opts.LinesMaxCount)
	case lr.Penalty < 0 || lr.Penalty > s.opts.LinesMaxCount:
		return storage.LineAssignment{}, gateway.Validationf("penalty must be between 0 and %d", s.opts.LinesMaxCount)
	}
	if lr.ChannelID == "" {
		lr.ChannelID = s.opts.LinesChannelID
	}
	if lr.ChannelID == "" {
		lr.ChannelID = req.ChannelID
	}
	if _, active := s.cache.Lines(req.Target); active {
		return storage.LineAssignment{}, gateway.Conflictf("<@%s> is already writing lines", req.Target)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "lines"); err != nil {
		return storage.LineAssignment{}, err
	}

	a := storage.LineAssignment{
		UserID:     req.Target,
		Line:       lr.Line,
		Remaining:  lr.Count,
		Penalty:    lr.Penalty,
		ChannelID:  lr.ChannelID,
		AssignedBy: req.Invoker,
	}
	return a, s.cache.PutLines(ctx, a)
}

// Flicker starts or stops voice oscillation for the target.
func (s *Service) Flicker(ctx context.Context, req Request, mode string) error {
	if strings.EqualFold(strings.TrimSpace(mode), "stop") {
		if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "stop flicker"); err != nil {
			return err
		}
		return s.voice.Stop(ctx, req.GuildID, req.Target)
	}
	m, err := voice.ParseMode(mode)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "voice "+string(m)); err != nil {
		return err
	}
	return s.voice.Start(context.WithoutCancel(ctx), req.GuildID, req.Target, m)
}
