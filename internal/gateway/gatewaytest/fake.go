// Package gatewaytest provides an in-memory gateway.Sink that records every action.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/server-warden/internal/gateway"
)

type Sent struct {
	ID        string
	ChannelID string
	Out       gateway.Outgoing
}

type Deleted struct {
	ChannelID string
	MessageID string
}

type Timeout struct {
	GuildID  string
	UserID   string
	Duration time.Duration
	Reason   string
}

type Reacted struct {
	ChannelID string
	MessageID string
	Emoji     string
}

type Direct struct {
	UserID  string
	Content string
}

type VoiceCall struct {
	UserID string
	Deafen bool
	On     bool
}

// Sink records actions. Set the *Err fields to inject failures.
type Sink struct {
	mu sync.Mutex

	Sent     []Sent
	Deleted  []Deleted
	Timeouts []Timeout
	Reacted  []Reacted
	Directs  []Direct
	Voice    []VoiceCall
	Threads  map[string]*gateway.Thread
	Names    map[string]string

	TimeoutErr error
	DeleteErr  error
	SendErr    error
	VoiceErr   error

	// OnDirect, when set, is called after a DM is recorded.
	OnDirect func(userID, content string)

	seq int
}

func New() *Sink {
	return &Sink{
		Threads: make(map[string]*gateway.Thread),
		Names:   make(map[string]string),
	}
}

func (s *Sink) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Sink) DeleteMessage(_ context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.Deleted = append(s.Deleted, Deleted{ChannelID: channelID, MessageID: messageID})
	return nil
}

func (s *Sink) SendMessage(_ context.Context, channelID string, out gateway.Outgoing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return "", s.SendErr
	}
	id := s.nextID("msg")
	s.Sent = append(s.Sent, Sent{ID: id, ChannelID: channelID, Out: out})
	for _, emoji := range out.Reactions {
		s.Reacted = append(s.Reacted, Reacted{ChannelID: channelID, MessageID: id, Emoji: emoji})
	}
	return id, nil
}

func (s *Sink) SendDirect(_ context.Context, userID, content string) error {
	s.mu.Lock()
	s.Directs = append(s.Directs, Direct{UserID: userID, Content: content})
	hook := s.OnDirect
	s.mu.Unlock()
	if hook != nil {
		hook(userID, content)
	}
	return nil
}

func (s *Sink) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reacted = append(s.Reacted, Reacted{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (s *Sink) TimeoutMember(_ context.Context, guildID, userID string, d time.Duration, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TimeoutErr != nil {
		return s.TimeoutErr
	}
	s.Timeouts = append(s.Timeouts, Timeout{GuildID: guildID, UserID: userID, Duration: d, Reason: reason})
	return nil
}

func (s *Sink) CreateThread(_ context.Context, channelID, name string) (*gateway.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th := &gateway.Thread{ID: s.nextID("thread"), ParentID: channelID, Name: name}
	s.Threads[th.ID] = th
	cp := *th
	return &cp, nil
}

func (s *Sink) EditThread(_ context.Context, threadID string, edit gateway.ThreadEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.Threads[threadID]
	if !ok {
		return gateway.NotFoundf("thread %s", threadID)
	}
	if edit.Archived != nil {
		th.Archived = *edit.Archived
	}
	if edit.Locked != nil {
		th.Locked = *edit.Locked
	}
	return nil
}

func (s *Sink) Thread(_ context.Context, threadID string) (*gateway.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.Threads[threadID]
	if !ok {
		return nil, gateway.NotFoundf("thread %s", threadID)
	}
	cp := *th
	return &cp, nil
}

func (s *Sink) MemberName(_ context.Context, _ string, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.Names[userID]; ok {
		return name, nil
	}
	return "", gateway.NotFoundf("member %s", userID)
}

func (s *Sink) VoiceMute(_ context.Context, _ string, userID string, mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.VoiceErr != nil {
		return s.VoiceErr
	}
	s.Voice = append(s.Voice, VoiceCall{UserID: userID, On: mute})
	return nil
}

func (s *Sink) VoiceDeafen(_ context.Context, _ string, userID string, deaf bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.VoiceErr != nil {
		return s.VoiceErr
	}
	s.Voice = append(s.Voice, VoiceCall{UserID: userID, Deafen: true, On: deaf})
	return nil
}

// Snapshot helpers copy under lock so tests can read while goroutines still run.

func (s *Sink) SentMessages() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.Sent...)
}

func (s *Sink) DeletedMessages() []Deleted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Deleted(nil), s.Deleted...)
}

func (s *Sink) TimeoutCalls() []Timeout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Timeout(nil), s.Timeouts...)
}

func (s *Sink) Reactions() []Reacted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reacted(nil), s.Reacted...)
}

func (s *Sink) DirectMessages() []Direct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Direct(nil), s.Directs...)
}

// SetVoiceErr is safe to call while jobs are running.
func (s *Sink) SetVoiceErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.VoiceErr = err
}

func (s *Sink) VoiceCalls() []VoiceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VoiceCall(nil), s.Voice...)
}

var _ gateway.Sink = (*Sink)(nil)
