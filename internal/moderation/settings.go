package moderation

import (
	"context"

	"github.com/keshon/server-warden/internal/auth"
	"github.com/keshon/server-warden/internal/feedback"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
)

func (s *Service) Settings(userID string) storage.UserSettings {
	return s.cache.Settings(userID)
}

// SetActions chooses what a word violation costs the target.
func (s *Service) SetActions(ctx context.Context, req Request, args []string) ([]string, error) {
	actions, err := policy.ParseActions(args)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "change punishments"); err != nil {
		return nil, err
	}
	us := s.cache.Settings(req.Target)
	us.Actions = actions
	return actions, s.cache.PutSettings(ctx, us)
}

func (s *Service) SetGagStyle(ctx context.Context, req Request, name string) (gag.Style, error) {
	style, err := parseStyle(name)
	if err != nil {
		return gag.None, err
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "change gag style"); err != nil {
		return gag.None, err
	}
	us := s.cache.Settings(req.Target)
	us.GagStyle = style.String()
	return style, s.cache.PutSettings(ctx, us)
}

// SetAuthMode is limited to the member themselves and managers.
func (s *Service) SetAuthMode(ctx context.Context, req Request, mode string) (string, error) {
	m, err := auth.ParseMode(mode)
	if err != nil {
		return "", err
	}
	if !req.self() && !s.guard.IsManager(req.Invoker) {
		return "", gateway.ErrPermissionDenied
	}
	if by, locked := s.cache.LockedBy(req.Target); locked && !s.guard.IsManager(req.Invoker) {
		return "", gateway.Conflictf("locked by <@%s>, settings are frozen", by)
	}
	us := s.cache.Settings(req.Target)
	us.AuthMode = m
	return m, s.cache.PutSettings(ctx, us)
}

// ToggleAllow flips whether the target is exempt from reaction feedback in the channel.
func (s *Service) ToggleAllow(ctx context.Context, req Request, channelID string) (bool, error) {
	if err := s.requireManager(req.Invoker); err != nil {
		return false, err
	}
	if channelID == "" {
		channelID = req.ChannelID
	}
	allowed := !s.cache.IsAllowed(req.Target, channelID)
	return allowed, s.cache.SetAllowed(ctx, storage.AllowEntry{UserID: req.Target, ChannelID: channelID}, allowed)
}

// ToggleIgnore flips whether the pipeline skips the target entirely.
func (s *Service) ToggleIgnore(ctx context.Context, req Request) (bool, error) {
	if err := s.requireManager(req.Invoker); err != nil {
		return false, err
	}
	ignored := !s.cache.IsIgnored(req.Target)
	return ignored, s.cache.SetIgnored(ctx, req.Target, ignored)
}

func (s *Service) RegisterFeedback(ctx context.Context, req Request, code string, intensity, duration int) error {
	if err := feedback.ValidateProfile(code, intensity, duration); err != nil {
		return err
	}
	if !req.self() && !s.guard.IsManager(req.Invoker) {
		return gateway.ErrPermissionDenied
	}
	return s.cache.PutFeedbackProfile(ctx, storage.FeedbackProfile{
		UserID:    req.Target,
		Code:      code,
		Intensity: intensity,
		Duration:  duration,
	})
}

func (s *Service) UnregisterFeedback(ctx context.Context, req Request) error {
	if !req.self() && !s.guard.IsManager(req.Invoker) {
		return gateway.ErrPermissionDenied
	}
	if _, ok := s.cache.FeedbackProfile(req.Target); !ok {
		return gateway.NotFoundf("<@%s> has no device registered", req.Target)
	}
	return s.cache.RemoveFeedbackProfile(ctx, req.Target)
}

// TestFeedback fires one signal at the registered maximums.
func (s *Service) TestFeedback(ctx context.Context, req Request) (feedback.Result, error) {
	p, ok := s.cache.FeedbackProfile(req.Target)
	if !ok {
		return feedback.Result{}, gateway.NotFoundf("<@%s> has no device registered", req.Target)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "test feedback"); err != nil {
		return feedback.Result{}, err
	}
	return s.feedback.Apply(ctx, req.Target, p.Intensity, p.Duration), nil
}
