package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gag"
	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
)

const (
	EmojiReveal  = "🔍"
	EmojiDelete  = "🗑️"
	EmojiCorrect = "✅"
)

const (
	// maxMessageLength is the Discord content limit in characters.
	maxMessageLength = 2000
	// maxTimeout is the longest timeout Discord accepts.
	maxTimeout = 28 * 24 * time.Hour
)

func (p *Pipeline) applyLines(ctx context.Context, msg gateway.Message, d policy.Decision) {
	user := msg.AuthorID
	a, ok := p.cache.Lines(user)
	if !ok {
		return
	}

	if d.Lines.Complete {
		if err := p.cache.RemoveLines(ctx, user); err != nil {
			p.log.Error("finish lines failed", zap.String("user", user), zap.Error(err))
			return
		}
		p.react(ctx, msg, EmojiCorrect)
		p.send(ctx, a.ChannelID, gateway.Outgoing{Content: fmt.Sprintf(pick(linesDonePhrases), user)})
		return
	}

	a.Remaining = d.Lines.Remaining
	if err := p.cache.PutLines(ctx, a); err != nil {
		p.log.Error("update lines failed", zap.String("user", user), zap.Error(err))
		return
	}

	switch {
	case !d.Lines.InChannel:
		p.send(ctx, msg.ChannelID, gateway.Outgoing{
			Content: fmt.Sprintf("✍️ <@%s>, your lines are waiting in <#%s>. +%d for wandering off, %d to go.",
				user, a.ChannelID, a.Penalty, a.Remaining),
			DeleteAfter: p.opts.WarningTTL,
		})
		p.fire(user, "lines: wrote outside the channel")
	case d.Lines.Correct:
		p.react(ctx, msg, EmojiCorrect)
	default:
		p.deleteMessage(ctx, msg)
		p.send(ctx, msg.ChannelID, gateway.Outgoing{
			Content:     fmt.Sprintf("❌ <@%s>, that is not the line. +%d, %d to go.\n> %s", user, a.Penalty, a.Remaining, a.Line),
			DeleteAfter: p.opts.WarningTTL,
		})
		p.fire(user, "lines: mistake")
	}
}

func (p *Pipeline) applyPrison(ctx context.Context, msg gateway.Message, d policy.Decision) {
	p.deleteMessage(ctx, msg)
	p.send(ctx, msg.ChannelID, gateway.Outgoing{
		Content:     fmt.Sprintf(pick(prisonPhrases), msg.AuthorID, d.ChannelID),
		DeleteAfter: p.opts.WarningTTL,
	})
	p.fire(msg.AuthorID, "prison: spoke outside the cell")
}

// applyWords handles an enforcement or ban violation. Escalation and the offense
// counter are persisted before the timeout is attempted and are kept when it fails.
func (p *Pipeline) applyWords(ctx context.Context, msg gateway.Message, d policy.Decision, kind storage.WordKind) {
	user := msg.AuthorID
	settings := p.cache.Settings(user)
	actions := policy.ActionsFor(settings.Actions)
	words := policy.WordList(d.Words)

	p.deleteMessage(ctx, msg)

	escalated, err := p.cache.EscalateWords(ctx, kind, user, words)
	if err != nil {
		p.log.Error("escalate words failed", zap.String("user", user), zap.Strings("words", words), zap.Error(err))
		escalated = make([]storage.WordRule, len(d.Words))
		for i, r := range d.Words {
			r.InitialTime += r.AddedTime
			escalated[i] = r
		}
	}
	offense, err := p.cache.IncrementOffense(ctx, user)
	if err != nil {
		p.log.Error("increment offense failed", zap.String("user", user), zap.Error(err))
		offense = p.cache.Offenses(user) + 1
	}

	total := policy.TotalTimeout(escalated)
	applied := true
	if actions.Timeout {
		reason := fmt.Sprintf("Offense #%d: %s %s", offense, violationVerb(kind), strings.Join(words, ", "))
		if limit := int64(maxTimeout / time.Second); total > limit {
			total = limit
			reason += " (capped at 28 days)"
		}
		if err := p.sink.TimeoutMember(ctx, msg.GuildID, user, time.Duration(total)*time.Second, reason); err != nil {
			applied = false
			p.log.Warn("timeout failed", zap.String("user", user), zap.Int64("seconds", total), zap.Error(err))
			if errors.Is(err, gateway.ErrPermissionDenied) {
				p.send(ctx, msg.ChannelID, gateway.Outgoing{
					Content:     fmt.Sprintf("⚠️ I could not time out <@%s>. The offense is still on record.", user),
					DeleteAfter: p.opts.WarningTTL,
				})
			}
		}
	}

	if actions.Cooldown {
		ceiling := int64(p.opts.CooldownCeiling / time.Second)
		if _, err := p.cache.AddCooldown(ctx, user, policy.TotalAdded(escalated), ceiling, p.now()); err != nil {
			p.log.Error("add cooldown failed", zap.String("user", user), zap.Error(err))
		}
	}

	if p.audit != nil {
		ev := storage.OffenseEvent{
			UserID:        user,
			Kind:          kind,
			Words:         strings.Join(words, ","),
			OffenseNumber: offense,
			Applied:       applied,
			CreatedAt:     p.now(),
		}
		if actions.Timeout {
			ev.TimeoutSeconds = total
		}
		if _, err := p.audit.RecordOffenseEvent(ctx, ev); err != nil {
			p.log.Error("record offense event failed", zap.String("user", user), zap.Error(err))
		}
	}

	if actions.Gag {
		style := p.styleFor(user, settings.GagStyle)
		p.postGagged(ctx, msg, style, gag.Transform(style, msg.Content))
	} else {
		p.send(ctx, msg.ChannelID, gateway.Outgoing{
			Content:     violationNotice(kind, user, offense, words),
			DeleteAfter: p.opts.WarningTTL,
		})
	}

	p.fire(user, "words: "+string(kind))
}

func (p *Pipeline) applyCooldown(ctx context.Context, msg gateway.Message, d policy.Decision) {
	p.deleteMessage(ctx, msg)
	p.send(ctx, msg.ChannelID, gateway.Outgoing{
		Content:     fmt.Sprintf("⏳ <@%s>, slow down. %ds left.", msg.AuthorID, d.RemainingSeconds),
		DeleteAfter: p.opts.WarningTTL,
	})
}

func (p *Pipeline) applyGag(ctx context.Context, msg gateway.Message, d policy.Decision) {
	if !p.deleteMessage(ctx, msg) {
		return
	}
	p.postGagged(ctx, msg, d.Style, d.Text)
}

// styleFor picks the settings style, then the active gag, then the default.
func (p *Pipeline) styleFor(userID, preferred string) gag.Style {
	if s, err := gag.Parse(preferred); err == nil {
		return s
	}
	if name, ok := p.cache.Gag(userID); ok {
		if s, err := gag.Parse(name); err == nil {
			return s
		}
	}
	return p.opts.DefaultStyle
}

// postGagged sends the transformed text under the author's name with reveal and
// delete controls.
func (p *Pipeline) postGagged(ctx context.Context, msg gateway.Message, style gag.Style, text string) {
	if strings.TrimSpace(text) == "" {
		text = "…"
	}
	prefix := fmt.Sprintf("**%s**: ", p.displayName(ctx, msg.GuildID, msg.AuthorID))
	id, err := p.sink.SendMessage(ctx, msg.ChannelID, gateway.Outgoing{
		Content:   prefix + clip(text, maxMessageLength-utf8.RuneCountInString(prefix)),
		Reactions: []string{EmojiReveal, EmojiDelete},
	})
	if err != nil {
		p.log.Warn("send gagged message failed", zap.String("user", msg.AuthorID), zap.Error(err))
		return
	}
	p.reveals.put(id, reveal{
		AuthorID:  msg.AuthorID,
		ChannelID: msg.ChannelID,
		Original:  msg.Content,
		Style:     style,
		Expires:   p.now().Add(p.opts.RevealTTL),
	})
}

// clip cuts s to at most limit characters, ending with an ellipsis when cut.
func clip(s string, limit int) string {
	if limit < 1 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

func (p *Pipeline) displayName(ctx context.Context, guildID, userID string) string {
	name, err := p.sink.MemberName(ctx, guildID, userID)
	if err != nil || name == "" {
		return fmt.Sprintf("<@%s>", userID)
	}
	return name
}

// deleteMessage reports whether the message is gone.
func (p *Pipeline) deleteMessage(ctx context.Context, msg gateway.Message) bool {
	err := p.sink.DeleteMessage(ctx, msg.ChannelID, msg.ID)
	if err == nil || errors.Is(err, gateway.ErrNotFound) {
		return true
	}
	p.log.Warn("delete message failed", zap.String("user", msg.AuthorID), zap.String("message", msg.ID), zap.Error(err))
	return false
}

func (p *Pipeline) send(ctx context.Context, channelID string, out gateway.Outgoing) {
	if _, err := p.sink.SendMessage(ctx, channelID, out); err != nil {
		p.log.Warn("send message failed", zap.String("channel", channelID), zap.Error(err))
	}
}

func (p *Pipeline) react(ctx context.Context, msg gateway.Message, emoji string) {
	if err := p.sink.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
		p.log.Debug("add reaction failed", zap.String("message", msg.ID), zap.Error(err))
	}
}

func violationVerb(kind storage.WordKind) string {
	if kind == storage.KindEnforced {
		return "forgot to say"
	}
	return "said"
}

func violationNotice(kind storage.WordKind, userID string, offense int64, words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = "**" + w + "**"
	}
	list := strings.Join(quoted, ", ")
	if kind == storage.KindEnforced {
		return fmt.Sprintf(pick(enforcePhrases), userID, list, offense)
	}
	return fmt.Sprintf(pick(banPhrases), userID, list, offense)
}
