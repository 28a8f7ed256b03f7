package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEscalateWordsIsMonotonic(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.PutWord(ctx, WordRule{Kind: KindEnforced, UserID: "u1", Word: "please", InitialTime: 60, AddedTime: 30}))

	for n := 1; n <= 5; n++ {
		rules, err := s.EscalateWords(ctx, KindEnforced, "u1", []string{"please"})
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, int64(60+30*n), rules[0].InitialTime)
	}
}

func TestEscalateWordsTouchesOnlyListedKind(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.PutWord(ctx, WordRule{Kind: KindEnforced, UserID: "u1", Word: "a", InitialTime: 10, AddedTime: 5}))
	require.NoError(t, s.PutWord(ctx, WordRule{Kind: KindBanned, UserID: "u1", Word: "a", InitialTime: 10, AddedTime: 5}))

	_, err := s.EscalateWords(ctx, KindBanned, "u1", []string{"a"})
	require.NoError(t, err)

	all, err := s.Words(ctx)
	require.NoError(t, err)
	for _, r := range all {
		if r.Kind == KindBanned {
			assert.Equal(t, int64(15), r.InitialTime)
		} else {
			assert.Equal(t, int64(10), r.InitialTime)
		}
	}
}

func TestIncrementOffense(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementOffense(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestWalletFloorsAtZero(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SetBalance(ctx, "u1", 500))
	bal, err := s.AdjustBalance(ctx, "u1", -2000, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestWalletCreatedLazily(t *testing.T) {
	s := newTestStorage(t)
	bal, err := s.Balance(context.Background(), "new", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal)
}

func TestTransfer(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	left, err := s.Transfer(ctx, "a", "b", 300, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(700), left)

	b, err := s.Balance(ctx, "b", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), b)

	_, err = s.Transfer(ctx, "a", "b", 5000, 1000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	a, err := s.Balance(ctx, "a", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(700), a, "failed transfer must not debit")
}

func TestSpendRequiresFunds(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Spend(ctx, "u1", 5000, 1000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	left, err := s.Spend(ctx, "u1", 400, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(600), left)
}

func TestClaimDaily(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	bal, _, err := s.ClaimDaily(ctx, "u1", 250, 1000, now, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), bal)

	_, next, err := s.ClaimDaily(ctx, "u1", 250, 1000, now.Add(time.Hour), 24*time.Hour)
	assert.ErrorIs(t, err, ErrDailyClaimed)
	assert.True(t, next.Equal(now.Add(24*time.Hour)))

	bal, _, err = s.ClaimDaily(ctx, "u1", 250, 1000, now.Add(24*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal)
}

func TestSolitaryRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rec, err := s.Solitary(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.PutSolitary(ctx, SolitaryRecord{UserID: "u1", ThreadID: "t1"}))
	rec, err = s.Solitary(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Active())

	at := time.UnixMilli(1700000000000)
	require.NoError(t, s.PutSolitary(ctx, SolitaryRecord{UserID: "u1", ThreadID: "t1", ArchivedAt: at}))
	rec, err = s.Solitary(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, rec.Active())
	assert.True(t, rec.ArchivedAt.Equal(at))
}

func TestOffenseEventsOrphaned(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.RecordOffenseEvent(ctx, OffenseEvent{UserID: "u1", Kind: KindBanned, Words: "cat", OffenseNumber: 1, TimeoutSeconds: 90, Applied: true})
	require.NoError(t, err)
	orphanID, err := s.RecordOffenseEvent(ctx, OffenseEvent{UserID: "u1", Kind: KindBanned, Words: "cat", OffenseNumber: 2, TimeoutSeconds: 120, Applied: false})
	require.NoError(t, err)

	all, err := s.OffenseEvents(ctx, "u1", false, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	orphans, err := s.OffenseEvents(ctx, "", true, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, orphanID, orphans[0].ID)
	assert.False(t, orphans[0].Applied)
}

func TestLinesAndSettings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.PutLines(ctx, LineAssignment{UserID: "u1", Line: "I will behave", Remaining: 3, Penalty: 2, ChannelID: "c1", AssignedBy: "m1"}))
	lines, err := s.Lines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].Remaining)

	require.NoError(t, s.PutSettings(ctx, UserSettings{UserID: "u1", Actions: []string{"timeout", "gag"}, AuthMode: "auto"}))
	settings, err := s.AllSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, []string{"timeout", "gag"}, settings[0].Actions)
	assert.Equal(t, "auto", settings[0].AuthMode)
}

func TestCommandHistory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.AppendCommandToHistory(ctx, CommandHistoryRecord{GuildID: "g1", ChannelID: "c1", UserID: "u1", Command: "gag"}))
	require.NoError(t, s.AppendCommandToHistory(ctx, CommandHistoryRecord{GuildID: "g2", ChannelID: "c2", UserID: "u2", Command: "lock"}))

	recs, err := s.FetchCommandHistory(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "gag", recs[0].Command)

	recs, err = s.FetchCommandHistory(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, "lock", recs[0].Command)
}

func TestPruneOffenseEvents(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.RecordOffenseEvent(ctx, OffenseEvent{UserID: "u1", Kind: KindEnforced, Words: "old", CreatedAt: now.Add(-48 * time.Hour)})
	require.NoError(t, err)
	_, err = s.RecordOffenseEvent(ctx, OffenseEvent{UserID: "u1", Kind: KindEnforced, Words: "new", CreatedAt: now})
	require.NoError(t, err)

	n, err := s.PruneOffenseEvents(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.OffenseEvents(ctx, "u1", false, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].Words)
}

func TestRunAuditCleanerSweepsOnStart(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.RecordOffenseEvent(context.Background(), OffenseEvent{UserID: "u1", Kind: KindBanned, Words: "old", CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		RunAuditCleaner(ctx, s, time.Minute, zap.NewNop())
		close(done)
	}()
	require.Eventually(t, func() bool {
		left, err := s.OffenseEvents(context.Background(), "", false, 10)
		return err == nil && len(left) == 0
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
