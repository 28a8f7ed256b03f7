package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/gateway/gatewaytest"
	"github.com/keshon/server-warden/internal/storage"
)

type fakeState struct {
	locks map[string]string
	modes map[string]string
}

func (f fakeState) LockedBy(id string) (string, bool) { v, ok := f.locks[id]; return v, ok }
func (f fakeState) Settings(id string) storage.UserSettings {
	return storage.UserSettings{UserID: id, AuthMode: f.modes[id]}
}

func newGuard(st fakeState, sink *gatewaytest.Sink, broker *Broker, timeout time.Duration) *Guard {
	return NewGuard(st, sink, broker, func(id string) bool { return id == "boss" }, timeout, zap.NewNop())
}

func TestLockGatingIgnoresAuthMode(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []string{ModeAsk, ModeAuto, ModeDeny, ""} {
		st := fakeState{locks: map[string]string{"u1": "boss"}, modes: map[string]string{"u1": mode}}
		g := newGuard(st, gatewaytest.New(), NewBroker(), 10*time.Millisecond)

		assert.ErrorIs(t, g.Authorize(ctx, "u1", "u1", "enforce"), gateway.ErrLocked, "mode %q", mode)
		assert.ErrorIs(t, g.Authorize(ctx, "u2", "u1", "enforce"), gateway.ErrLocked, "mode %q", mode)
		assert.ErrorIs(t, g.Authorize(ctx, "u2", "u1", "enforce"), gateway.ErrPermissionDenied)
		assert.NoError(t, g.Authorize(ctx, "boss", "u1", "enforce"), "mode %q", mode)
	}
}

func TestLockedInvokerCannotTargetOthers(t *testing.T) {
	st := fakeState{locks: map[string]string{"u1": "boss"}, modes: map[string]string{"u2": ModeAuto}}
	g := newGuard(st, gatewaytest.New(), NewBroker(), time.Second)
	err := g.Authorize(context.Background(), "u1", "u2", "gag")
	assert.ErrorIs(t, err, gateway.ErrLocked)
	assert.ErrorIs(t, err, gateway.ErrPermissionDenied)
	assert.EqualError(t, err, "permission denied: you are locked")
}

func TestLockedTargetMessage(t *testing.T) {
	st := fakeState{locks: map[string]string{"u2": "boss"}}
	g := newGuard(st, gatewaytest.New(), NewBroker(), time.Second)
	err := g.Authorize(context.Background(), "u1", "u2", "gag")
	assert.ErrorIs(t, err, gateway.ErrPermissionDenied)
	assert.EqualError(t, err, "permission denied: <@u2> is locked")
}

func TestSelfAndManagersSkipConsent(t *testing.T) {
	sink := gatewaytest.New()
	st := fakeState{modes: map[string]string{"u1": ModeDeny}}
	g := newGuard(st, sink, NewBroker(), time.Second)

	assert.NoError(t, g.Authorize(context.Background(), "u1", "u1", "gag"))
	assert.NoError(t, g.Authorize(context.Background(), "boss", "u1", "gag"))
	assert.Empty(t, sink.DirectMessages())
}

func TestAutoAndDenyModes(t *testing.T) {
	st := fakeState{modes: map[string]string{"auto": ModeAuto, "deny": ModeDeny}}
	g := newGuard(st, gatewaytest.New(), NewBroker(), time.Second)

	assert.NoError(t, g.Authorize(context.Background(), "u2", "auto", "gag"))
	assert.ErrorIs(t, g.Authorize(context.Background(), "u2", "deny", "gag"), gateway.ErrDenied)
}

func TestAskHandshake(t *testing.T) {
	cases := []struct {
		reply string
		ok    bool
	}{{"Yes", true}, {"y", true}, {"no", false}, {"maybe later", false}}

	for _, tc := range cases {
		broker := NewBroker()
		sink := gatewaytest.New()
		sink.OnDirect = func(userID, _ string) { broker.Deliver(userID, tc.reply) }
		g := newGuard(fakeState{}, sink, broker, time.Second)

		err := g.Authorize(context.Background(), "u2", "u1", "gag")
		if tc.ok {
			assert.NoError(t, err, tc.reply)
		} else {
			assert.ErrorIs(t, err, gateway.ErrDenied, tc.reply)
		}
		dms := sink.DirectMessages()
		require.Len(t, dms, 1)
		assert.Equal(t, "u1", dms[0].UserID)
		assert.Contains(t, dms[0].Content, "gag")
	}
}

func TestAskHandshakeTimesOut(t *testing.T) {
	broker := NewBroker()
	g := newGuard(fakeState{}, gatewaytest.New(), broker, 20*time.Millisecond)

	err := g.Authorize(context.Background(), "u2", "u1", "prison")
	assert.ErrorIs(t, err, gateway.ErrDenied)
	assert.False(t, broker.Deliver("u1", "yes"), "request is closed after timeout")
}

func TestBrokerRejectsSecondRequest(t *testing.T) {
	b := NewBroker()
	r, err := b.Open("u1")
	require.NoError(t, err)

	_, err = b.Open("u1")
	assert.ErrorIs(t, err, gateway.ErrConflict)

	r.Close()
	r2, err := b.Open("u1")
	require.NoError(t, err)
	r2.Close()
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" AUTO ")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)
	_, err = ParseMode("sometimes")
	assert.ErrorIs(t, err, gateway.ErrValidation)
}
