package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-warden/internal/storage"
)

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := storage.New(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.PutPrisoner(ctx, storage.PrisonAssignment{
		UserID: "111", ChannelID: "t1", EnteredBalance: 400, EnteredAt: time.Now(),
	}))
	require.NoError(t, s.PutSolitary(ctx, storage.SolitaryRecord{UserID: "111", ThreadID: "t1"}))
	_, err = s.RecordOffenseEvent(ctx, storage.OffenseEvent{
		UserID: "222", Kind: storage.KindBanned, Words: "cat", OffenseNumber: 1, TimeoutSeconds: 60, Applied: false,
	})
	require.NoError(t, err)
	_, err = s.RecordOffenseEvent(ctx, storage.OffenseEvent{
		UserID: "222", Kind: storage.KindBanned, Words: "dog", OffenseNumber: 2, TimeoutSeconds: 90, Applied: true,
	})
	require.NoError(t, err)
	require.NoError(t, s.PutWord(ctx, storage.WordRule{
		Kind: storage.KindEnforced, UserID: "111", Word: "please", InitialTime: 60,
	}))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPrisonersAndRelease(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "prisoners")
	require.NoError(t, err)
	assert.Contains(t, out, "111")
	assert.Contains(t, out, "400")

	out, err = run(t, "--db", db, "release", "111")
	require.NoError(t, err)
	assert.Contains(t, out, "111 released")

	out, err = run(t, "--db", db, "prisoners")
	require.NoError(t, err)
	assert.Contains(t, out, "No one is confined.")

	s, err := storage.New(db)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Solitary(context.Background(), "111")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Active())
}

func TestAuditOrphanedFilter(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "dog")

	out, err = run(t, "--db", db, "audit", "--orphaned")
	require.NoError(t, err)
	assert.Contains(t, out, "cat")
	assert.NotContains(t, out, "dog")
}

func TestWalletSet(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "wallet", "333")
	require.NoError(t, err)
	assert.Equal(t, "333: 1000\n", out)

	out, err = run(t, "--db", db, "wallet", "333", "--set", "42")
	require.NoError(t, err)
	assert.Equal(t, "333: 42\n", out)

	_, err = run(t, "--db", db, "wallet", "333", "--set", "-1")
	assert.Error(t, err)

	_, err = run(t, "--db", db, "wallet")
	assert.Error(t, err)
}

func TestWordsFilter(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "words", "--user", "111")
	require.NoError(t, err)
	assert.Contains(t, out, "please")

	out, err = run(t, "--db", db, "words", "--user", "999")
	require.NoError(t, err)
	assert.NotContains(t, out, "please")
}

func TestDateFormatFlag(t *testing.T) {
	db := seed(t)

	out, err := run(t, "--db", db, "prisoners", "--date-format", "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Contains(t, out, time.Now().UTC().Format("02/01/2006"))
}
