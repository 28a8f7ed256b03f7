package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientFunds is returned when a wallet cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrDailyClaimed is returned by ClaimDaily inside the cooldown window.
var ErrDailyClaimed = errors.New("daily already claimed")

func ensureWallet(ctx context.Context, tx *sqlx.Tx, userID string, defaultBalance int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, defaultBalance)
	return err
}

func walletBalance(ctx context.Context, tx *sqlx.Tx, userID string) (int64, error) {
	var bal int64
	err := tx.GetContext(ctx, &bal, `SELECT balance FROM wallets WHERE user_id = ?`, userID)
	return bal, err
}

// Balance returns the user's balance, creating the wallet with defaultBalance on first access.
func (s *Storage) Balance(ctx context.Context, userID string, defaultBalance int64) (int64, error) {
	var bal int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureWallet(ctx, tx, userID, defaultBalance); err != nil {
			return err
		}
		var err error
		bal, err = walletBalance(ctx, tx, userID)
		return err
	})
	return bal, err
}

// AdjustBalance adds delta (which may be negative) and floors the result at zero.
func (s *Storage) AdjustBalance(ctx context.Context, userID string, delta, defaultBalance int64) (int64, error) {
	var bal int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureWallet(ctx, tx, userID, defaultBalance); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = MAX(balance + ?, 0) WHERE user_id = ?`, delta, userID); err != nil {
			return err
		}
		var err error
		bal, err = walletBalance(ctx, tx, userID)
		return err
	})
	return bal, err
}

func (s *Storage) SetBalance(ctx context.Context, userID string, balance int64) error {
	if balance < 0 {
		balance = 0
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET balance = excluded.balance`, userID, balance)
	return err
}

// Spend debits amount only if the wallet can cover it.
func (s *Storage) Spend(ctx context.Context, userID string, amount, defaultBalance int64) (int64, error) {
	var bal int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureWallet(ctx, tx, userID, defaultBalance); err != nil {
			return err
		}
		var err error
		if bal, err = walletBalance(ctx, tx, userID); err != nil {
			return err
		}
		if bal < amount {
			return ErrInsufficientFunds
		}
		if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance = balance - ? WHERE user_id = ?`, amount, userID); err != nil {
			return err
		}
		bal -= amount
		return nil
	})
	return bal, err
}

// Transfer moves amount from one wallet to another atomically.
func (s *Storage) Transfer(ctx context.Context, fromID, toID string, amount, defaultBalance int64) (int64, error) {
	var remaining int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, id := range []string{fromID, toID} {
			if err := ensureWallet(ctx, tx, id, defaultBalance); err != nil {
				return err
			}
		}
		bal, err := walletBalance(ctx, tx, fromID)
		if err != nil {
			return err
		}
		if bal < amount {
			return ErrInsufficientFunds
		}
		if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance = balance - ? WHERE user_id = ?`, amount, fromID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE wallets SET balance = balance + ? WHERE user_id = ?`, amount, toID); err != nil {
			return err
		}
		remaining = bal - amount
		return nil
	})
	return remaining, err
}

// ClaimDaily credits amount if the last claim is at least every ago.
func (s *Storage) ClaimDaily(ctx context.Context, userID string, amount, defaultBalance int64, now time.Time, every time.Duration) (int64, time.Time, error) {
	var (
		bal  int64
		next time.Time
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureWallet(ctx, tx, userID, defaultBalance); err != nil {
			return err
		}
		var last int64
		if err := tx.GetContext(ctx, &last, `SELECT last_daily FROM wallets WHERE user_id = ?`, userID); err != nil {
			return err
		}
		if last != 0 {
			next = fromMillis(last).Add(every)
			if now.Before(next) {
				return ErrDailyClaimed
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance + ?, last_daily = ? WHERE user_id = ?`,
			amount, toMillis(now), userID); err != nil {
			return err
		}
		next = now.Add(every)
		var err error
		bal, err = walletBalance(ctx, tx, userID)
		return err
	})
	return bal, next, err
}
