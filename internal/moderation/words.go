package moderation

import (
	"context"
	"strings"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/policy"
	"github.com/keshon/server-warden/internal/storage"
)

func (s *Service) Enforce(ctx context.Context, req Request, words []string) ([]string, error) {
	return s.addWords(ctx, req, storage.KindEnforced, words)
}

func (s *Service) Ban(ctx context.Context, req Request, words []string) ([]string, error) {
	return s.addWords(ctx, req, storage.KindBanned, words)
}

func (s *Service) Unenforce(ctx context.Context, req Request, words []string) ([]string, error) {
	return s.removeWords(ctx, req, storage.KindEnforced, words)
}

func (s *Service) Unban(ctx context.Context, req Request, words []string) ([]string, error) {
	return s.removeWords(ctx, req, storage.KindBanned, words)
}

// addWords rejects the whole batch if any word collides with the opposite set.
// Words already present keep their escalated timers.
func (s *Service) addWords(ctx context.Context, req Request, kind storage.WordKind, words []string) ([]string, error) {
	words = normalizeWords(words)
	if len(words) == 0 {
		return nil, gateway.Validationf("name at least one word")
	}
	opposite := s.cache.Words(kind.Opposite(), req.Target)
	for _, w := range words {
		if hit, clash := policy.WordConflict(w, opposite); clash {
			return nil, gateway.Conflictf("%q collides with %s word %q", w, kind.Opposite(), hit)
		}
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, string(kind)+" words"); err != nil {
		return nil, err
	}

	existing := make(map[string]bool)
	for _, r := range s.cache.Words(kind, req.Target) {
		existing[r.Word] = true
	}
	var added []string
	for _, w := range words {
		if existing[w] {
			continue
		}
		rule := storage.WordRule{
			Kind:        kind,
			UserID:      req.Target,
			Word:        w,
			InitialTime: s.opts.WordInitial,
			AddedTime:   s.opts.WordAdded,
		}
		if err := s.cache.PutWord(ctx, rule); err != nil {
			return added, err
		}
		added = append(added, w)
	}
	if len(added) == 0 {
		return nil, gateway.Conflictf("those words are already %s", kind)
	}
	return added, nil
}

func (s *Service) removeWords(ctx context.Context, req Request, kind storage.WordKind, words []string) ([]string, error) {
	words = normalizeWords(words)
	if len(words) == 0 {
		return nil, gateway.Validationf("name at least one word, or all")
	}
	current := s.cache.Words(kind, req.Target)
	if len(current) == 0 {
		return nil, gateway.NotFoundf("<@%s> has no %s words", req.Target, kind)
	}
	if err := s.guard.Authorize(ctx, req.Invoker, req.Target, "lift "+string(kind)+" words"); err != nil {
		return nil, err
	}

	if len(words) == 1 && words[0] == "all" {
		words = policy.WordList(current)
	}
	present := make(map[string]bool, len(current))
	for _, r := range current {
		present[r.Word] = true
	}
	var removed []string
	for _, w := range words {
		if !present[w] {
			continue
		}
		if err := s.cache.RemoveWord(ctx, kind, req.Target, w); err != nil {
			return removed, err
		}
		removed = append(removed, w)
	}
	if len(removed) == 0 {
		return nil, gateway.NotFoundf("none of those words are %s", kind)
	}
	return removed, nil
}

func normalizeWords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, w := range strings.Split(raw, ",") {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
