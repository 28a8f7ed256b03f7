// Package economy is the virtual-currency ledger. Wallets are created lazily with
// a default balance and never go below zero.
package economy

import (
	"context"
	"errors"
	"time"

	"github.com/keshon/server-warden/internal/gateway"
	"github.com/keshon/server-warden/internal/storage"
)

const DailyEvery = 24 * time.Hour

// Ledger is the wallet part of the State Store.
type Ledger interface {
	Balance(ctx context.Context, userID string, defaultBalance int64) (int64, error)
	AdjustBalance(ctx context.Context, userID string, delta, defaultBalance int64) (int64, error)
	Spend(ctx context.Context, userID string, amount, defaultBalance int64) (int64, error)
	Transfer(ctx context.Context, fromID, toID string, amount, defaultBalance int64) (int64, error)
	ClaimDaily(ctx context.Context, userID string, amount, defaultBalance int64, now time.Time, every time.Duration) (int64, time.Time, error)
}

type Wallet struct {
	ledger         Ledger
	defaultBalance int64
	dailyAmount    int64
	now            func() time.Time
}

func NewWallet(ledger Ledger, defaultBalance, dailyAmount int64, now func() time.Time) *Wallet {
	if now == nil {
		now = time.Now
	}
	return &Wallet{ledger: ledger, defaultBalance: defaultBalance, dailyAmount: dailyAmount, now: now}
}

func (w *Wallet) Balance(ctx context.Context, userID string) (int64, error) {
	return w.ledger.Balance(ctx, userID, w.defaultBalance)
}

func (w *Wallet) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, gateway.Validationf("amount must be positive")
	}
	return w.ledger.AdjustBalance(ctx, userID, amount, w.defaultBalance)
}

// Debit removes up to amount; the balance stops at zero.
func (w *Wallet) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, gateway.Validationf("amount must be positive")
	}
	return w.ledger.AdjustBalance(ctx, userID, -amount, w.defaultBalance)
}

// Spend debits amount only when the balance covers it.
func (w *Wallet) Spend(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, gateway.Validationf("amount must be positive")
	}
	bal, err := w.ledger.Spend(ctx, userID, amount, w.defaultBalance)
	if errors.Is(err, storage.ErrInsufficientFunds) {
		return bal, gateway.Conflictf("you need %d coins, you have %d", amount, bal)
	}
	return bal, err
}

func (w *Wallet) Transfer(ctx context.Context, fromID, toID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, gateway.Validationf("amount must be positive")
	}
	if fromID == toID {
		return 0, gateway.Validationf("you cannot pay yourself")
	}
	left, err := w.ledger.Transfer(ctx, fromID, toID, amount, w.defaultBalance)
	if errors.Is(err, storage.ErrInsufficientFunds) {
		return 0, gateway.Conflictf("not enough coins to give %d", amount)
	}
	return left, err
}

// Daily credits the daily amount once per DailyEvery.
func (w *Wallet) Daily(ctx context.Context, userID string) (int64, error) {
	bal, next, err := w.ledger.ClaimDaily(ctx, userID, w.dailyAmount, w.defaultBalance, w.now(), DailyEvery)
	if errors.Is(err, storage.ErrDailyClaimed) {
		wait := next.Sub(w.now()).Round(time.Minute)
		return 0, gateway.Conflictf("daily already claimed, come back in %s", wait)
	}
	return bal, err
}
