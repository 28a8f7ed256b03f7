package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
)

type fakeState struct {
	locks     map[string]string
	prisoners map[string]storage.PrisonAssignment
	lines     map[string]storage.LineAssignment
	words     map[storage.WordKind][]storage.WordRule
	cooldown  int64
	last      time.Time
	gags      map[string]string
}

func newFakeState() *fakeState {
	return &fakeState{
		locks:     map[string]string{},
		prisoners: map[string]storage.PrisonAssignment{},
		lines:     map[string]storage.LineAssignment{},
		words:     map[storage.WordKind][]storage.WordRule{},
		gags:      map[string]string{},
	}
}

func (f *fakeState) LockedBy(id string) (string, bool) { v, ok := f.locks[id]; return v, ok }
func (f *fakeState) Prison(id string) (storage.PrisonAssignment, bool) {
	v, ok := f.prisoners[id]
	return v, ok
}
func (f *fakeState) Lines(id string) (storage.LineAssignment, bool) { v, ok := f.lines[id]; return v, ok }
func (f *fakeState) Words(k storage.WordKind, _ string) []storage.WordRule { return f.words[k] }
func (f *fakeState) Cooldown(string) (int64, time.Time)                    { return f.cooldown, f.last }
func (f *fakeState) Gag(id string) (string, bool)                         { v, ok := f.gags[id]; return v, ok }

func TestCooldownBoundary(t *testing.T) {
	st := newFakeState()
	t0 := time.Unix(0, 0)
	st.cooldown, st.last = 30, t0

	d := Cooldown(st, "u1", t0.Add(29999*time.Millisecond))
	assert.True(t, d.Blocks())
	assert.Equal(t, int64(1), d.RemainingSeconds)

	d = Cooldown(st, "u1", t0.Add(30*time.Second))
	assert.Equal(t, Effect, d.Verdict)

	d = Cooldown(st, "u1", t0.Add(10*time.Second))
	assert.Equal(t, int64(20), d.RemainingSeconds)
}

func TestCooldownWithoutRecordStillRefreshes(t *testing.T) {
	d := Cooldown(newFakeState(), "u1", time.Now())
	assert.Equal(t, Effect, d.Verdict)
}

func TestEnforcementReportsMissingWords(t *testing.T) {
	st := newFakeState()
	st.words[storage.KindEnforced] = []storage.WordRule{{Word: "please"}, {Word: "Mistress"}}

	d := Enforcement(st, "u1", "PLEASE may I")
	require.True(t, d.Blocks())
	assert.Equal(t, []string{"Mistress"}, WordList(d.Words))

	assert.False(t, Enforcement(st, "u1", "please, mistress").Blocks())
}

func TestBanReportsPresentWords(t *testing.T) {
	st := newFakeState()
	st.words[storage.KindBanned] = []storage.WordRule{{Word: "no"}, {Word: "cats"}}

	d := Ban(st, "u1", "I like CATS")
	require.True(t, d.Blocks())
	assert.Equal(t, []string{"cats"}, WordList(d.Words))
	assert.False(t, Ban(st, "u1", "yes").Blocks())
}

func TestPrisonContainment(t *testing.T) {
	st := newFakeState()
	st.prisoners["u1"] = storage.PrisonAssignment{UserID: "u1", ChannelID: "jail"}

	assert.False(t, Prison(st, "u1", "jail").Blocks())
	d := Prison(st, "u1", "general")
	assert.True(t, d.Blocks())
	assert.Equal(t, "jail", d.ChannelID)

	st.lines["u1"] = storage.LineAssignment{UserID: "u1", ChannelID: "lines"}
	assert.False(t, Prison(st, "u1", "lines").Blocks(), "line-writing channel is exempt")
	assert.False(t, Prison(st, "u2", "general").Blocks())
}

func TestLineWritingSequence(t *testing.T) {
	st := newFakeState()
	a := storage.LineAssignment{UserID: "u1", Line: "I will obey", Remaining: 3, Penalty: 2, ChannelID: "lines"}

	inputs := []string{"I will obey", " I will obey ", "I will obay", "I will obey", "I will obey"}
	want := []int64{2, 1, 3, 2, 1}
	for i, in := range inputs {
		st.lines["u1"] = a
		d := Lines(st, "u1", "lines", in)
		require.True(t, d.Blocks())
		assert.Equal(t, want[i], d.Lines.Remaining, "step %d", i)
		assert.False(t, d.Lines.Complete)
		a.Remaining = d.Lines.Remaining
	}

	st.lines["u1"] = a
	d := Lines(st, "u1", "lines", "I will obey")
	assert.True(t, d.Lines.Complete)
	assert.Equal(t, int64(0), d.Lines.Remaining)
}

func TestLineWritingOutsideChannelPenalises(t *testing.T) {
	st := newFakeState()
	st.lines["u1"] = storage.LineAssignment{UserID: "u1", Line: "x", Remaining: 3, Penalty: 2, ChannelID: "lines"}

	d := Lines(st, "u1", "general", "x")
	assert.Equal(t, Effect, d.Verdict)
	assert.Equal(t, int64(5), d.Lines.Remaining)
	assert.False(t, d.Lines.InChannel)
}

func TestGagFallsBackOnUnknownStyle(t *testing.T) {
	st := newFakeState()
	st.gags["u1"] = "kazoo"

	d := Gag(st, "u1", "hello", gag.Reverse)
	require.True(t, d.Blocks())
	assert.Equal(t, gag.Reverse, d.Style)
	assert.Equal(t, "olleh", d.Text)
	assert.False(t, Gag(st, "u2", "hello", gag.Ball).Blocks())
}

func TestWordConflictBothDirections(t *testing.T) {
	banned := []storage.WordRule{{Word: "cats"}}
	w, ok := WordConflict("cat", banned)
	assert.True(t, ok)
	assert.Equal(t, "cats", w)

	enforced := []storage.WordRule{{Word: "cat"}}
	_, ok = WordConflict("Cats", enforced)
	assert.True(t, ok)

	_, ok = WordConflict("dog", banned)
	assert.False(t, ok)
}

func TestTotals(t *testing.T) {
	rules := []storage.WordRule{{InitialTime: 90, AddedTime: 30}, {InitialTime: 20, AddedTime: 10}}
	assert.Equal(t, int64(110), TotalTimeout(rules))
	assert.Equal(t, int64(40), TotalAdded(rules))
}

func TestActions(t *testing.T) {
	assert.Equal(t, Actions{Timeout: true}, ActionsFor(nil))
	assert.Equal(t, Actions{Gag: true, Cooldown: true}, ActionsFor([]string{"gag", "cooldown"}))

	got, err := ParseActions([]string{"timeout,gag", "gag"})
	require.NoError(t, err)
	assert.Equal(t, []string{"timeout", "gag"}, got)

	_, err = ParseActions([]string{"shock"})
	assert.ErrorIs(t, err, gateway.ErrValidation)
	_, err = ParseActions(nil)
	assert.ErrorIs(t, err, gateway.ErrValidation)
}
