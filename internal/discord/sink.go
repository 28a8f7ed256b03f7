package discord

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
)

// Sink implements gateway.Sink over a discordgo session.
type Sink struct {
	s   *discordgo.Session
	log *zap.Logger
}

var _ gateway.Sink = (*Sink)(nil)

func NewSink(s *discordgo.Session, log *zap.Logger) *Sink {
	return &Sink{s: s, log: log.Named("discord")}
}

// DeleteMessage treats an already deleted message as success.
func (k *Sink) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := mapError("delete message", k.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	return err
}

func (k *Sink) SendMessage(ctx context.Context, channelID string, out gateway.Outgoing) (string, error) {
	data := &discordgo.MessageSend{Content: out.Content}
	if out.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{{
			Title:       out.Embed.Title,
			Description: out.Embed.Description,
			Color:       out.Embed.Color,
		}}
	}
	m, err := k.s.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError("send message", err)
	}

	for _, emoji := range out.Reactions {
		if err := k.s.MessageReactionAdd(channelID, m.ID, emoji, discordgo.WithContext(ctx)); err != nil {
			k.log.Debug("add reaction failed", zap.String("message", m.ID), zap.String("emoji", emoji), zap.Error(err))
		}
	}
	if out.DeleteAfter > 0 {
		k.deleteAfter(channelID, m.ID, out.DeleteAfter)
	}
	return m.ID, nil
}

func (k *Sink) deleteAfter(channelID, messageID string, d time.Duration) {
	time.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := k.DeleteMessage(ctx, channelID, messageID); err != nil {
			k.log.Debug("scheduled delete failed", zap.String("message", messageID), zap.Error(err))
		}
	})
}

func (k *Sink) SendDirect(ctx context.Context, userID, content string) error {
	ch, err := k.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError("open dm", err)
	}
	_, err = k.s.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return mapError("send dm", err)
}

func (k *Sink) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError("add reaction", k.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)))
}

// TimeoutMember records reason in the guild audit log.
func (k *Sink) TimeoutMember(ctx context.Context, guildID, userID string, d time.Duration, reason string) error {
	until := time.Now().Add(d)
	err := k.s.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(auditReason(reason)))
	if err != nil {
		return mapError("timeout member", err)
	}
	k.log.Info("member timed out",
		zap.String("guild", guildID), zap.String("user", userID),
		zap.Duration("duration", d), zap.String("reason", reason))
	return nil
}

// auditReason trims reason to the 512 characters Discord keeps and URL-encodes
// it for the header.
func auditReason(reason string) string {
	const limit = 512
	if r := []rune(reason); len(r) > limit {
		reason = string(r[:limit-1]) + "…"
	}
	return url.PathEscape(reason)
}

// CreateThread opens a public thread that archives after a week of inactivity.
func (k *Sink) CreateThread(ctx context.Context, channelID, name string) (*gateway.Thread, error) {
	ch, err := k.s.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: 10080,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("create thread", err)
	}
	return toThread(ch), nil
}

func (k *Sink) EditThread(ctx context.Context, threadID string, edit gateway.ThreadEdit) error {
	_, err := k.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: edit.Archived,
		Locked:   edit.Locked,
	}, discordgo.WithContext(ctx))
	return mapError("edit thread", err)
}

func (k *Sink) Thread(ctx context.Context, threadID string) (*gateway.Thread, error) {
	ch, err := k.s.State.Channel(threadID)
	if err != nil {
		ch, err = k.s.Channel(threadID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapError("fetch thread", err)
		}
	}
	if !ch.IsThread() {
		return nil, gateway.NotFoundf("channel %s is not a thread", threadID)
	}
	return toThread(ch), nil
}

// MemberName prefers the guild nickname, then the global display name.
func (k *Sink) MemberName(ctx context.Context, guildID, userID string) (string, error) {
	m, err := k.s.State.Member(guildID, userID)
	if err != nil {
		m, err = k.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return "", mapError("fetch member", err)
		}
	}
	return memberName(m), nil
}

func (k *Sink) VoiceMute(ctx context.Context, guildID, userID string, mute bool) error {
	return mapError("voice mute", k.s.GuildMemberMute(guildID, userID, mute, discordgo.WithContext(ctx)))
}

func (k *Sink) VoiceDeafen(ctx context.Context, guildID, userID string, deaf bool) error {
	return mapError("voice deafen", k.s.GuildMemberDeafen(guildID, userID, deaf, discordgo.WithContext(ctx)))
}

func toThread(ch *discordgo.Channel) *gateway.Thread {
	t := &gateway.Thread{ID: ch.ID, ParentID: ch.ParentID, Name: ch.Name}
	if ch.ThreadMetadata != nil {
		t.Archived = ch.ThreadMetadata.Archived
		t.Locked = ch.ThreadMetadata.Locked
	}
	return t
}

func memberName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
