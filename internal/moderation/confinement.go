package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
)

// Prison confines the target to channelID.
func (s *Service) Prison(ctx context.Context, req Request, channelID string) error {
	if channelID == "" {
		channelID = req.ChannelID
	}
	if cell, ok := s.cache.Prison(req.Target); ok {
		return gateway.Conflictf("<@%s> is already confined to <#%s>", req.Target, cell.ChannelID)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "prison"); err != nil {
		return err
	}
	return s.confine(ctx, req.Target, channelID)
}

func (s *Service) confine(ctx context.Context, userID, channelID string) error {
	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	return s.cache.SetPrison(ctx, storage.PrisonAssignment{
		UserID:         userID,
		ChannelID:      channelID,
		EnteredBalance: balance,
		EnteredAt:      s.now(),
	})
}

// Solitary confines the target to a dedicated thread under req.ChannelID.
// An existing thread is reused, reopened when it was archived.
func (s *Service) Solitary(ctx context.Context, req Request) (*gateway.Thread, error) {
	if cell, ok := s.cache.Prison(req.Target); ok {
		return nil, gateway.Conflictf("<@%s> is already confined to <#%s>", req.Target, cell.ChannelID)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "solitary"); err != nil {
		return nil, err
	}

	thread, err := s.solitaryThread(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.solitary.PutSolitary(ctx, storage.SolitaryRecord{UserID: req.Target, ThreadID: thread.ID}); err != nil {
		return nil, err
	}
	if err := s.confine(ctx, req.Target, thread.ID); err != nil {
		return nil, err
	}
	s.post(ctx, thread.ID, fmt.Sprintf("<@%s>, this is your cell now. Think about what you did.", req.Target))
	return thread, nil
}

func (s *Service) solitaryThread(ctx context.Context, req Request) (*gateway.Thread, error) {
	rec, err := s.solitary.Solitary(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.ThreadID != "" {
		th, err := s.sink.Thread(ctx, rec.ThreadID)
		switch {
		case err == nil && !th.Archived && !th.Locked:
			return th, nil
		case err == nil:
			if err := s.sink.EditThread(ctx, th.ID, gateway.ThreadEdit{
				Archived: gateway.Bool(false),
				Locked:   gateway.Bool(false),
			}); err != nil {
				return nil, fmt.Errorf("reopen thread: %w", err)
			}
			th.Archived, th.Locked = false, false
			return th, nil
		case !errors.Is(err, gateway.ErrNotFound):
			return nil, fmt.Errorf("fetch thread: %w", err)
		}
		s.log.Info("solitary thread is gone, creating a new one", zap.String("user", req.Target), zap.String("thread", rec.ThreadID))
	}

	name := "solitary-" + s.memberName(ctx, req.GuildID, req.Target)
	th, err := s.sink.CreateThread(ctx, req.ChannelID, name)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return th, nil
}

func (s *Service) Release(ctx context.Context, req Request) error {
	if _, ok := s.cache.Prison(req.Target); !ok {
		return gateway.NotFoundf("<@%s> is not confined", req.Target)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "release"); err != nil {
		return err
	}
	return s.release(ctx, req.Target)
}

// Freedom lets a prisoner buy their own release.
func (s *Service) Freedom(ctx context.Context, req Request) (int64, error) {
	if _, ok := s.cache.Prison(req.Invoker); !ok {
		return 0, gateway.NotFoundf("you are not confined")
	}
	left, err := s.wallet.Spend(ctx, req.Invoker, s.opts.FreedomPrice)
	if err != nil {
		return left, err
	}
	if err := s.release(ctx, req.Invoker); err != nil {
		if _, rerr := s.wallet.Credit(ctx, req.Invoker, s.opts.FreedomPrice); rerr != nil {
			s.log.Error("refund after failed release", zap.String("user", req.Invoker), zap.Error(rerr))
		}
		return left, err
	}
	return left, nil
}

// release is shared by moderator release and freedom purchase. A solitary thread
// gets a farewell, is archived and locked, and is stamped before the
// assignment is removed.
func (s *Service) release(ctx context.Context, userID string) error {
	cell, ok := s.cache.Prison(userID)
	if !ok {
		return gateway.NotFoundf("<@%s> is not confined", userID)
	}

	rec, err := s.solitary.Solitary(ctx, userID)
	if err != nil {
		return err
	}
	if rec != nil && rec.Active() && rec.ThreadID == cell.ChannelID {
		s.post(ctx, rec.ThreadID, fmt.Sprintf("<@%s> has been released. This cell is now closed.", userID))
		err := s.sink.EditThread(ctx, rec.ThreadID, gateway.ThreadEdit{
			Archived: gateway.Bool(true),
			Locked:   gateway.Bool(true),
		})
		if err != nil && !errors.Is(err, gateway.ErrNotFound) {
			return fmt.Errorf("archive thread: %w", err)
		}
		rec.ArchivedAt = s.now()
		if err := s.solitary.PutSolitary(ctx, *rec); err != nil {
			return err
		}
	}
	return s.cache.RemovePrison(ctx, userID)
}

func (s *Service) post(ctx context.Context, channelID, content string) {
	if _, err := s.sink.SendMessage(ctx, channelID, gateway.Outgoing{Content: content}); err != nil {
		s.log.Warn("send notice", zap.String("channel", channelID), zap.Error(err))
	}
}
