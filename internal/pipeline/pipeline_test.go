package pipeline

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/cache"
	"github.com/keshon/server-warden/internal/feedback"
	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/gateway/gatewaytest"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	msgs  []gateway.Message
	panic bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg gateway.Message) {
	if d.panic {
		panic("boom")
	}
	d.mu.Lock()
	d.msgs = append(d.msgs, msg)
	d.mu.Unlock()
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

type fakeFeedback struct {
	mu         sync.Mutex
	registered map[string]bool
	calls      []string
}

func (f *fakeFeedback) Registered(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[id]
}

func (f *fakeFeedback) Apply(_ context.Context, id string, _, _ int) feedback.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return feedback.Result{Success: true}
}

func (f *fakeFeedback) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	p     *Pipeline
	cache *cache.Cache
	store *storage.Storage
	sink  *gatewaytest.Sink
	fb    *fakeFeedback
	disp  *recordingDispatcher
	now   time.Time
	roll  float64
	seq   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := &harness{
		store: store,
		cache: cache.New(store),
		sink:  gatewaytest.New(),
		fb:    &fakeFeedback{registered: map[string]bool{}},
		disp:  &recordingDispatcher{},
		now:   time.Unix(1_700_000_000, 0),
		roll:  1,
	}
	require.NoError(t, h.cache.Load(context.Background()))
	h.p = New(Deps{
		Cache:      h.cache,
		Sink:       h.sink,
		Audit:      store,
		Feedback:   h.fb,
		Dispatcher: h.disp,
		Log:        zap.NewNop(),
		Now:        func() time.Time { return h.now },
		Rand:       func() float64 { return h.roll },
	}, Options{
		Prefix:             "!",
		DefaultStyle:       gag.Reverse,
		WarningTTL:         10 * time.Second,
		CooldownCeiling:    24 * time.Hour,
		ViolationIntensity: 25,
		ViolationDuration:  1,
		ReactionChance:     0.5,
		IsManager:          func(id string) bool { return id == "boss" },
	})
	t.Cleanup(h.p.Wait)
	return h
}

func (h *harness) send(user, channel, content string) (policy.Name, gateway.Message) {
	h.seq++
	msg := gateway.Message{
		ID:        "in-" + strconv.Itoa(h.seq),
		AuthorID:  user,
		Content:   content,
		ChannelID: channel,
		GuildID:   "g1",
	}
	return h.p.Process(context.Background(), msg), msg
}

func TestPrisonOutranksGag(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.SetPrison(ctx, storage.PrisonAssignment{UserID: "u1", ChannelID: "jail"}))
	require.NoError(t, h.cache.SetGag(ctx, "u1", "ball"))

	handled, msg := h.send("u1", "general", "hello there")
	assert.Equal(t, policy.NamePrison, handled)

	deleted := h.sink.DeletedMessages()
	require.Len(t, deleted, 1)
	assert.Equal(t, msg.ID, deleted[0].MessageID)
	for _, s := range h.sink.SentMessages() {
		assert.Empty(t, s.Out.Reactions, "no gagged replacement expected")
		assert.Contains(t, s.Out.Content, "<#jail>")
	}
	assert.Zero(t, h.disp.count())
}

func TestGagInsideCellStillApplies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.SetPrison(ctx, storage.PrisonAssignment{UserID: "u1", ChannelID: "jail"}))
	require.NoError(t, h.cache.SetGag(ctx, "u1", "reverse"))

	handled, _ := h.send("u1", "jail", "abc")
	assert.Equal(t, policy.NameGag, handled)

	sent := h.sink.SentMessages()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasSuffix(sent[0].Out.Content, ": cba"))
	assert.Equal(t, []string{EmojiReveal, EmojiDelete}, sent[0].Out.Reactions)
}

func TestGagRevealAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.SetGag(ctx, "u1", "dog"))
	h.send("u1", "general", "secret words")

	sent := h.sink.SentMessages()
	require.Len(t, sent, 1)
	replacement := sent[0].ID

	h.p.HandleReaction(ctx, gateway.Reaction{Emoji: EmojiReveal, ChannelID: "general", MessageID: replacement, ReactorID: "u2"})
	dms := h.sink.DirectMessages()
	require.Len(t, dms, 1)
	assert.Equal(t, "u2", dms[0].UserID)
	assert.Contains(t, dms[0].Content, "secret words")

	h.p.HandleReaction(ctx, gateway.Reaction{Emoji: EmojiDelete, ChannelID: "general", MessageID: replacement, ReactorID: "u2"})
	assert.Len(t, h.sink.DeletedMessages(), 1, "only the original; bystanders cannot delete")

	h.p.HandleReaction(ctx, gateway.Reaction{Emoji: EmojiDelete, ChannelID: "general", MessageID: replacement, ReactorID: "u1"})
	assert.Len(t, h.sink.DeletedMessages(), 2)
	assert.Zero(t, h.p.reveals.len())
}

func TestEnforcementEscalatesAndTimesOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{Kind: storage.KindEnforced, UserID: "u1", Word: "please", InitialTime: 60, AddedTime: 30}))

	handled, _ := h.send("u1", "general", "give me that")
	assert.Equal(t, policy.NameEnforce, handled)

	timeouts := h.sink.TimeoutCalls()
	require.Len(t, timeouts, 1)
	assert.Equal(t, 90*time.Second, timeouts[0].Duration)
	assert.Contains(t, timeouts[0].Reason, "Offense #1")
	assert.Equal(t, int64(1), h.cache.Offenses("u1"))

	handled, _ = h.send("u1", "general", "please")
	assert.Equal(t, policy.Name(""), handled)
	assert.Equal(t, 1, h.disp.count())
}

func TestFailedTimeoutKeepsEscalation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{Kind: storage.KindBanned, UserID: "u1", Word: "no", InitialTime: 60, AddedTime: 30}))
	h.sink.TimeoutErr = gateway.ErrPermissionDenied

	h.send("u1", "general", "no way")

	rules := h.cache.Words(storage.KindBanned, "u1")
	require.Len(t, rules, 1)
	assert.Equal(t, int64(90), rules[0].InitialTime)

	orphans, err := h.store.OffenseEvents(ctx, "", true, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, int64(90), orphans[0].TimeoutSeconds)

	var warned bool
	for _, s := range h.sink.SentMessages() {
		warned = warned || strings.Contains(s.Out.Content, "could not time out")
	}
	assert.True(t, warned)
}

func TestBanCooldownSumsAddedTime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutSettings(ctx, storage.UserSettings{UserID: "u1", Actions: []string{"cooldown", "gag"}}))
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{Kind: storage.KindBanned, UserID: "u1", Word: "cat", InitialTime: 10, AddedTime: 30}))
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{Kind: storage.KindBanned, UserID: "u1", Word: "dog", InitialTime: 10, AddedTime: 10}))

	h.send("u1", "general", "cat and dog")

	seconds, _ := h.cache.Cooldown("u1")
	assert.Equal(t, int64(40), seconds)
	assert.Empty(t, h.sink.TimeoutCalls())

	sent := h.sink.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{EmojiReveal, EmojiDelete}, sent[0].Out.Reactions, "gag action posts a replacement")
}

func TestCooldownBlocksThenAllows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	t0 := h.now
	require.NoError(t, h.cache.SetCooldown(ctx, "u1", 30, t0))

	h.now = t0.Add(10 * time.Second)
	handled, _ := h.send("u1", "general", "hi")
	assert.Equal(t, policy.NameCooldown, handled)
	sent := h.sink.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Out.Content, "20s")

	h.now = t0.Add(30 * time.Second)
	handled, _ = h.send("u1", "general", "hi again")
	assert.Equal(t, policy.Name(""), handled)
	_, last := h.cache.Cooldown("u1")
	assert.True(t, last.Equal(h.now))
}

func TestLineWritingCompletion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutLines(ctx, storage.LineAssignment{UserID: "u1", Line: "I obey", Remaining: 3, Penalty: 2, ChannelID: "lines"}))

	steps := []struct {
		text string
		want int64
	}{{"I obey", 2}, {"I obey", 1}, {"I disobey", 3}, {"I obey", 2}, {"I obey", 1}}
	for _, s := range steps {
		handled, _ := h.send("u1", "lines", s.text)
		assert.Equal(t, policy.NameLines, handled)
		a, ok := h.cache.Lines("u1")
		require.True(t, ok, "record must survive until completion")
		assert.Equal(t, s.want, a.Remaining)
	}

	h.send("u1", "lines", "I obey")
	_, ok := h.cache.Lines("u1")
	assert.False(t, ok)
	rows, err := h.store.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, h.disp.count())
}

func TestLineWritingOutsideChannelContinues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutLines(ctx, storage.LineAssignment{UserID: "u1", Line: "x", Remaining: 3, Penalty: 2, ChannelID: "lines"}))

	handled, _ := h.send("u1", "general", "!help")
	assert.Equal(t, policy.Name(""), handled)
	assert.Equal(t, 1, h.disp.count())
	a, _ := h.cache.Lines("u1")
	assert.Equal(t, int64(5), a.Remaining)
}

func TestCommandsSkipContentPoliciesButNotPrison(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.SetGag(ctx, "u1", "ball"))
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{Kind: storage.KindEnforced, UserID: "u1", Word: "please", InitialTime: 60, AddedTime: 30}))

	handled, _ := h.send("u1", "general", "!balance")
	assert.Equal(t, policy.Name(""), handled)
	assert.Equal(t, 1, h.disp.count())

	require.NoError(t, h.cache.SetPrison(ctx, storage.PrisonAssignment{UserID: "u1", ChannelID: "jail"}))
	handled, _ = h.send("u1", "general", "!balance")
	assert.Equal(t, policy.NamePrison, handled)
	assert.Equal(t, 1, h.disp.count())
}

func TestFilteredMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.SetGag(ctx, "u1", "ball"))
	require.NoError(t, h.cache.SetIgnored(ctx, "u2", true))

	for _, msg := range []gateway.Message{
		{ID: "1", AuthorID: "u1", Content: "x", ChannelID: "c", GuildID: "g", AuthorIsBot: true},
		{ID: "2", AuthorID: "u1", Content: "x", ChannelID: "c"},
		{ID: "3", AuthorID: "u1", Content: "x", ChannelID: "c", GuildID: "g", HasAttachments: true},
		{ID: "4", AuthorID: "u1", Content: "x", ChannelID: "c", GuildID: "g", HasStickers: true},
		{ID: "5", AuthorID: "u2", Content: "!help", ChannelID: "c", GuildID: "g"},
	} {
		assert.Equal(t, policy.Name(""), h.p.Process(ctx, msg))
	}
	assert.Empty(t, h.sink.DeletedMessages())
	assert.Zero(t, h.disp.count())
}

func TestProcessRecoversFromPanics(t *testing.T) {
	h := newHarness(t)
	h.disp.panic = true
	assert.NotPanics(t, func() { h.send("u1", "general", "!help") })
}

func TestAmbientReactionFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fb.registered["u1"] = true
	r := gateway.Reaction{Emoji: "❤️", ChannelID: "c1", MessageID: "m1", MessageAuthorID: "u1", ReactorID: "u2"}

	h.roll = 0.9
	h.p.HandleReaction(ctx, r)
	h.roll = 0.1
	h.p.HandleReaction(ctx, r)
	h.p.Wait()
	assert.Equal(t, 1, h.fb.callCount())

	require.NoError(t, h.cache.SetAllowed(ctx, storage.AllowEntry{UserID: "u1", ChannelID: "c1"}, true))
	h.p.HandleReaction(ctx, r)
	h.p.Wait()
	assert.Equal(t, 1, h.fb.callCount(), "allow-listed channel is exempt")
}

func TestRevealEntriesExpire(t *testing.T) {
	r := newReveals()
	now := time.Unix(100, 0)
	r.put("a", reveal{Expires: now.Add(time.Minute)})
	r.put("b", reveal{Expires: now.Add(-time.Second)})

	_, ok := r.get("b", now)
	assert.False(t, ok)
	assert.Equal(t, 1, r.prune(now))
	assert.Equal(t, 1, r.len())
}

func TestGaggedReplacementFitsMessageLimit(t *testing.T) {
	for _, style := range []string{"base64", "morse"} {
		t.Run(style, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.cache.SetGag(context.Background(), "u1", style))
			h.sink.Names = map[string]string{"u1": "Bob"}

			original := strings.Repeat("hello ", 300)
			h.send("u1", "general", original)

			sent := h.sink.SentMessages()
			require.Len(t, sent, 1)
			content := sent[0].Out.Content
			assert.LessOrEqual(t, utf8.RuneCountInString(content), maxMessageLength)
			assert.True(t, strings.HasPrefix(content, "**Bob**: "))
			assert.True(t, strings.HasSuffix(content, "…"))

			h.p.HandleReaction(context.Background(), gateway.Reaction{
				Emoji: EmojiReveal, ChannelID: "general", MessageID: sent[0].ID, ReactorID: "u2",
			})
			dms := h.sink.DirectMessages()
			require.Len(t, dms, 1)
			assert.LessOrEqual(t, utf8.RuneCountInString(dms[0].Content), maxMessageLength)
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "ab…", clip("abcd", 3))
	assert.Equal(t, "жж…", clip("жжжж", 3))
	assert.Empty(t, clip("abc", 0))
}

func TestTimeoutCappedAtPlatformMaximum(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.cache.PutWord(ctx, storage.WordRule{
		Kind: storage.KindBanned, UserID: "u1", Word: "cat", InitialTime: int64(40 * 24 * time.Hour / time.Second), AddedTime: 60,
	}))

	h.send("u1", "general", "a cat")

	timeouts := h.sink.TimeoutCalls()
	require.Len(t, timeouts, 1)
	assert.Equal(t, maxTimeout, timeouts[0].Duration)
	assert.Contains(t, timeouts[0].Reason, "capped at 28 days")

	events, err := h.store.OffenseEvents(ctx, "u1", false, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(maxTimeout/time.Second), events[0].TimeoutSeconds)
}
