package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WordKind distinguishes the enforced set (must appear) from the banned set (must not appear).
type WordKind string

const (
	KindEnforced WordKind = "enforced"
	KindBanned   WordKind = "banned"
)

// Opposite returns the set a word must not collide with.
func (k WordKind) Opposite() WordKind {
	if k == KindEnforced {
		return KindBanned
	}
	return KindEnforced
}

// WordRule is one word of a user's enforced or banned set with its escalation timers (seconds).
type WordRule struct {
	Kind        WordKind `db:"kind"`
	UserID      string   `db:"user_id"`
	Word        string   `db:"word"`
	InitialTime int64    `db:"initial_time"`
	AddedTime   int64    `db:"added_time"`
}

func (s *Storage) Words(ctx context.Context) ([]WordRule, error) {
	var out []WordRule
	err := s.db.SelectContext(ctx, &out,
		`SELECT kind, user_id, word, initial_time, added_time FROM words`)
	return out, err
}

func (s *Storage) PutWord(ctx context.Context, rule WordRule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO words (kind, user_id, word, initial_time, added_time) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, user_id, word) DO UPDATE SET
		   initial_time = excluded.initial_time, added_time = excluded.added_time`,
		rule.Kind, rule.UserID, rule.Word, rule.InitialTime, rule.AddedTime)
	return err
}

func (s *Storage) DeleteWord(ctx context.Context, kind WordKind, userID, word string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM words WHERE kind = ? AND user_id = ? AND word = ?`, kind, userID, word)
	return err
}

// EscalateWords adds added_time to initial_time for every listed word in one transaction
// and returns the updated rules.
func (s *Storage) EscalateWords(ctx context.Context, kind WordKind, userID string, words []string) ([]WordRule, error) {
	if len(words) == 0 {
		return nil, nil
	}

	var out []WordRule
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, w := range words {
			if _, err := tx.ExecContext(ctx,
				`UPDATE words SET initial_time = initial_time + added_time
				 WHERE kind = ? AND user_id = ? AND word = ?`, kind, userID, w); err != nil {
				return fmt.Errorf("escalate %q: %w", w, err)
			}
		}

		query, args, err := sqlx.In(
			`SELECT kind, user_id, word, initial_time, added_time FROM words
			 WHERE kind = ? AND user_id = ? AND word IN (?) ORDER BY word`, kind, userID, words)
		if err != nil {
			return err
		}
		return tx.SelectContext(ctx, &out, tx.Rebind(query), args...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
