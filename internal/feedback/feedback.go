// Package feedback talks to the external corporal-feedback device service.
// Calls never fail loudly: every outcome is folded into a Result.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
	"github.com/keshon/server-warden/pkg/retrylimit"
)

const (
	MinIntensity = 1
	MaxIntensity = 100
	MinDuration  = 1
	MaxDuration  = 15

	maxAttempts = 3
)

type Result struct {
	Success bool
	Message string
}

// Profiles resolves a user to the registered device.
type Profiles interface {
	FeedbackProfile(userID string) (storage.FeedbackProfile, bool)
}

type Client struct {
	url     string
	apiKey  string
	http    *http.Client
	lim     *retrylimit.AdaptiveLimiter
	log     *zap.Logger
	profile Profiles
}

// New returns a client posting to url. An empty url disables the client.
func New(url, apiKey string, timeout time.Duration, profiles Profiles, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		lim:     retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		log:     log.Named("feedback"),
		profile: profiles,
	}
}

func (c *Client) Enabled() bool { return c != nil && c.url != "" }

// Registered reports whether the user has a device profile.
func (c *Client) Registered(userID string) bool {
	if !c.Enabled() {
		return false
	}
	_, ok := c.profile.FeedbackProfile(userID)
	return ok
}

// ValidateProfile checks registration arguments.
func ValidateProfile(code string, intensity, duration int) error {
	if strings.TrimSpace(code) == "" {
		return gateway.Validationf("device code is required")
	}
	if intensity < MinIntensity || intensity > MaxIntensity {
		return gateway.Validationf("intensity must be between %d and %d", MinIntensity, MaxIntensity)
	}
	if duration < MinDuration || duration > MaxDuration {
		return gateway.Validationf("duration must be between %d and %d", MinDuration, MaxDuration)
	}
	return nil
}

type request struct {
	Code      string `json:"code"`
	Intensity int    `json:"intensity"`
	Duration  int    `json:"duration"`
}

type response struct {
	Message string `json:"message"`
}

// Apply sends a signal to the user's registered device. Intensity and duration
// are clamped to the device limits and to the user's registered maximums.
func (c *Client) Apply(ctx context.Context, userID string, intensity, duration int) Result {
	if !c.Enabled() {
		return Result{Message: "feedback is not configured"}
	}
	p, ok := c.profile.FeedbackProfile(userID)
	if !ok {
		return Result{Message: "user is not registered"}
	}
	req := request{
		Code:      p.Code,
		Intensity: clamp(intensity, MinIntensity, min(MaxIntensity, p.Intensity)),
		Duration:  clamp(duration, MinDuration, min(MaxDuration, p.Duration)),
	}

	var msg string
	err := retrylimit.WithRetryConfig(ctx, func() error {
		m, err := c.post(ctx, req)
		msg = m
		return err
	}, c.lim, retrylimit.RetryConfig{MaxAttempts: maxAttempts, Jitter: true, Logger: c.log})
	if err != nil {
		c.log.Warn("feedback failed", zap.String("user", userID), zap.Error(err))
		return Result{Message: fmt.Errorf("%w: %w", gateway.ErrExternal, err).Error()}
	}
	if msg == "" {
		msg = "ok"
	}
	c.log.Debug("feedback applied", zap.String("user", userID),
		zap.Int("intensity", req.Intensity), zap.Int("duration", req.Duration))
	return Result{Success: true, Message: msg}
}

func (c *Client) post(ctx context.Context, body request) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", retrylimit.Fatal(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", retrylimit.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", retrylimit.Fatal(err)
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &retrylimit.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", retrylimit.Fatal(se)
		}
		return "", se
	}

	var parsed response
	if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
		return parsed.Message, nil
	}
	return strings.TrimSpace(string(raw)), nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
