package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, RateLimitDelay: time.Millisecond}
}

func TestRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	}, nil, fastConfig(3))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFatalStopsImmediately(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Fatal(&StatusError{Code: 404})
	}, nil, fastConfig(5))
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.StatusCode())
}

func TestMaxAttemptsWrapsLastError(t *testing.T) {
	boom := errors.New("boom")
	err := WithRetryConfig(context.Background(), func() error { return boom }, nil, fastConfig(2))
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.ErrorIs(t, err, boom)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetryConfig(ctx, func() error { return nil }, nil, fastConfig(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 5, 1, 0.5)
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
	lim.RateLimited()
	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit(), "never below min")
}
