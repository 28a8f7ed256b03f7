package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "boom"},
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("op", restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)), gateway.ErrNotFound)
	assert.ErrorIs(t, mapError("op", restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)), gateway.ErrPermissionDenied)
	assert.ErrorIs(t, mapError("op", restError(http.StatusForbidden, 0)), gateway.ErrPermissionDenied)
	assert.ErrorIs(t, mapError("op", restError(http.StatusNotFound, 0)), gateway.ErrNotFound)

	err := mapError("op", restError(http.StatusInternalServerError, 0))
	assert.False(t, gateway.UserFacing(err))
	var restErr *discordgo.RESTError
	assert.True(t, errors.As(err, &restErr))

	plain := errors.New("socket closed")
	assert.ErrorIs(t, mapError("op", plain), plain)
}

func TestToMessage(t *testing.T) {
	m := toMessage(&discordgo.Message{
		ID:          "1",
		ChannelID:   "2",
		GuildID:     "3",
		Content:     "hi",
		Author:      &discordgo.User{ID: "4", Bot: true},
		Attachments: []*discordgo.MessageAttachment{{ID: "a"}},
	})
	assert.Equal(t, "4", m.AuthorID)
	assert.True(t, m.AuthorIsBot)
	assert.True(t, m.HasAttachments)
	assert.False(t, m.HasStickers)
	assert.True(t, m.InGuild())
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "nick", memberName(&discordgo.Member{Nick: "nick", User: &discordgo.User{Username: "u"}}))
	assert.Equal(t, "Global", memberName(&discordgo.Member{User: &discordgo.User{Username: "u", GlobalName: "Global"}}))
	assert.Equal(t, "u", memberName(&discordgo.Member{User: &discordgo.User{Username: "u"}}))
	assert.Empty(t, memberName(nil))
}

func TestToThread(t *testing.T) {
	th := toThread(&discordgo.Channel{
		ID: "t", ParentID: "p", Name: "solitary-bob",
		ThreadMetadata: &discordgo.ThreadMetadata{Archived: true, Locked: true},
	})
	assert.Equal(t, gateway.Thread{ID: "t", ParentID: "p", Name: "solitary-bob", Archived: true, Locked: true}, *th)
}

type recorder struct {
	msgs      []gateway.Message
	reactions []gateway.Reaction
	directs   []string
	stopped   []string
	restored  []string
}

func (r *recorder) Process(_ context.Context, msg gateway.Message) policy.Name {
	r.msgs = append(r.msgs, msg)
	return ""
}
func (r *recorder) HandleReaction(_ context.Context, rx gateway.Reaction) {
	r.reactions = append(r.reactions, rx)
}
func (r *recorder) Deliver(userID, content string) bool {
	r.directs = append(r.directs, userID+":"+content)
	return true
}
func (r *recorder) Stop(_ context.Context, _, userID string) error {
	r.stopped = append(r.stopped, userID)
	return gateway.ErrNotFound
}

func (r *recorder) Restore(_ context.Context, _, userID string) error {
	r.restored = append(r.restored, userID)
	return gateway.ErrNotFound
}

func TestEventRouting(t *testing.T) {
	b, err := New(Options{Token: "test"}, zap.NewNop())
	require.NoError(t, err)
	rec := &recorder{}
	b.Attach(rec, rec, rec)
	s := b.dg

	b.onMessageCreate(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "1", ChannelID: "c", GuildID: "g", Content: "hello", Author: &discordgo.User{ID: "u1"},
	}})
	b.onMessageCreate(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "2", ChannelID: "dm", Content: "yes", Author: &discordgo.User{ID: "u2"},
	}})
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, "hello", rec.msgs[0].Content)
	assert.Equal(t, []string{"u2:yes"}, rec.directs)

	b.onVoiceStateUpdate(s, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{GuildID: "g", UserID: "u1", ChannelID: "v"}})
	b.onVoiceStateUpdate(s, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{GuildID: "g", UserID: "u1"}})
	assert.Equal(t, []string{"u1"}, rec.stopped)
	assert.Equal(t, []string{"u1"}, rec.restored, "joins retry owed restores")
}

func TestRunRequiresProcessor(t *testing.T) {
	b, err := New(Options{Token: "test"}, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, b.Run(context.Background()))
}

func TestTimeoutMemberSendsAuditReason(t *testing.T) {
	var (
		path   string
		reason string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		reason = r.Header.Get("X-Audit-Log-Reason")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	old := discordgo.EndpointGuilds
	discordgo.EndpointGuilds = srv.URL + "/guilds/"
	defer func() { discordgo.EndpointGuilds = old }()

	s, err := discordgo.New("Bot test")
	require.NoError(t, err)
	sink := NewSink(s, zap.NewNop())

	err = sink.TimeoutMember(context.Background(), "g1", "u1", 90*time.Second, "Offense #3: said cats")
	require.NoError(t, err)
	assert.Equal(t, "/guilds/g1/members/u1", path)
	decoded, err := url.PathUnescape(reason)
	require.NoError(t, err)
	assert.Equal(t, "Offense #3: said cats", decoded)
}

func TestAuditReasonLimit(t *testing.T) {
	assert.Equal(t, "short", auditReason("short"))
	long, err := url.PathUnescape(auditReason(strings.Repeat("é", 600)))
	require.NoError(t, err)
	assert.Equal(t, 512, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "…"))
}
