// Package gateway describes the chat platform boundary: the events the bot consumes
// and the actions it may take. The discord package implements it over discordgo.
package gateway

import (
	"context"
	"time"
)

// Message is an inbound chat message.
type Message struct {
	ID             string
	AuthorID       string
	AuthorIsBot    bool
	Content        string
	ChannelID      string
	GuildID        string
	HasAttachments bool
	HasStickers    bool
}

// InGuild reports whether the message was posted in a guild channel.
func (m Message) InGuild() bool { return m.GuildID != "" }

// Reaction is an inbound reaction-added event.
type Reaction struct {
	Emoji           string
	GuildID         string
	ChannelID       string
	MessageID       string
	MessageAuthorID string
	ReactorID       string
}

// Outgoing is a message the bot sends.
type Outgoing struct {
	Content string
	// DeleteAfter schedules removal of the sent message; zero keeps it.
	DeleteAfter time.Duration
	Embed       *Embed
	// Reactions are added to the sent message in order.
	Reactions []string
}

type Embed struct {
	Title       string
	Description string
	Color       int
}

// Thread is a thread-like sub-channel.
type Thread struct {
	ID       string
	ParentID string
	Name     string
	Archived bool
	Locked   bool
}

// ThreadEdit changes thread state; nil fields are left untouched.
type ThreadEdit struct {
	Archived *bool
	Locked   *bool
}

// Sink is the set of actions the bot can take on the chat platform.
type Sink interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendMessage(ctx context.Context, channelID string, out Outgoing) (string, error)
	SendDirect(ctx context.Context, userID, content string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	TimeoutMember(ctx context.Context, guildID, userID string, d time.Duration, reason string) error

	CreateThread(ctx context.Context, channelID, name string) (*Thread, error)
	EditThread(ctx context.Context, threadID string, edit ThreadEdit) error
	Thread(ctx context.Context, threadID string) (*Thread, error)

	MemberName(ctx context.Context, guildID, userID string) (string, error)
	VoiceMute(ctx context.Context, guildID, userID string, mute bool) error
	VoiceDeafen(ctx context.Context, guildID, userID string, deaf bool) error
}

// Bool is a helper for ThreadEdit fields.
func Bool(v bool) *bool { return &v }
