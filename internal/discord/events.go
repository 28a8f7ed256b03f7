package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID, g.Name)
	}
	b.log.Info("discord bot is running",
		zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID, g.Name) {
		return
	}
	b.log.Debug("guild available", zap.String("guild", g.ID), zap.String("name", g.Name))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	msg := toMessage(m.Message)
	if !msg.InGuild() {
		if b.inbox != nil && !msg.AuthorIsBot {
			b.inbox.Deliver(msg.AuthorID, msg.Content)
		}
		return
	}
	if handled := b.proc.Process(b.context(), msg); handled != "" {
		b.log.Debug("message handled by policy",
			zap.String("policy", string(handled)), zap.String("user", msg.AuthorID))
	}
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil || (s.State.User != nil && r.UserID == s.State.User.ID) {
		return
	}
	rx := toReaction(r.MessageReaction)
	rx.MessageAuthorID = b.messageAuthor(s, r.ChannelID, r.MessageID)
	b.proc.HandleReaction(b.context(), rx)
}

// messageAuthor looks in the state cache first and falls back to REST.
func (b *Bot) messageAuthor(s *discordgo.Session, channelID, messageID string) string {
	m, err := s.State.Message(channelID, messageID)
	if err != nil {
		m, err = s.ChannelMessage(channelID, messageID)
		if err != nil {
			b.log.Debug("reacted message unavailable", zap.String("message", messageID), zap.Error(err))
			return ""
		}
	}
	if m.Author == nil {
		return ""
	}
	return m.Author.ID
}

// onVoiceStateUpdate ends voice effects once a member leaves voice entirely and
// retries any owed restore when they are connected again.
func (b *Bot) onVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if b.voice == nil || v.VoiceState == nil {
		return
	}
	if v.ChannelID != "" {
		err := b.voice.Restore(b.context(), v.GuildID, v.UserID)
		if err != nil && !errors.Is(err, gateway.ErrNotFound) {
			b.log.Warn("restore voice state on join failed",
				zap.String("guild", v.GuildID), zap.String("user", v.UserID), zap.Error(err))
		}
		return
	}
	err := b.voice.Stop(b.context(), v.GuildID, v.UserID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		b.log.Warn("stop voice effect on leave failed",
			zap.String("guild", v.GuildID), zap.String("user", v.UserID), zap.Error(err))
	}
}

func toMessage(m *discordgo.Message) gateway.Message {
	msg := gateway.Message{
		ID:             m.ID,
		Content:        m.Content,
		ChannelID:      m.ChannelID,
		GuildID:        m.GuildID,
		HasAttachments: len(m.Attachments) > 0,
		HasStickers:    len(m.StickerItems) > 0,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	return msg
}

func toReaction(r *discordgo.MessageReaction) gateway.Reaction {
	return gateway.Reaction{
		Emoji:     r.Emoji.Name,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		ReactorID: r.UserID,
	}
}
