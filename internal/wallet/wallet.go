// Package wallet moves money between a user's balance and the append-only
// transaction ledger. Every balance change is a relative adjustment paired
// with exactly one Transaction row in the same atomic unit; balance and
// ledger never diverge.
//
// Known gap: debit and credit carry no idempotency key, so a retried call
// is a second movement, not a replay of the first. Flagged deliberately
// rather than papered over.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/booking/db"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Recorder appends audit records after a completed operation.
type Recorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Wallet struct {
	DB    *bun.DB
	Audit Recorder
}

func NewWallet(bunDB *bun.DB, audit Recorder) *Wallet {
	return &Wallet{DB: bunDB, Audit: audit}
}

// Debit subtracts amount from the user's balance and appends the matching
// debit Transaction row. The balance is re-read under the row lock, never
// taken from a caller's stale copy; an amount the balance cannot cover
// fails with ErrInsufficientBalance and writes nothing.
func (w *Wallet) Debit(ctx context.Context, idb bun.IDB, userID int64, amount decimal.Decimal, txnType models.TransactionType, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	balance, err := w.balanceForUpdate(ctx, idb, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance.LessThan(amount) {
		return decimal.Zero, models.ErrInsufficientBalance
	}

	if err := w.adjust(ctx, idb, userID, amount.Neg()); err != nil {
		return decimal.Zero, err
	}
	if err := w.append(ctx, idb, userID, amount.Neg(), txnType, description); err != nil {
		return decimal.Zero, err
	}
	return balance.Sub(amount), nil
}

// Credit adds amount to the user's balance and appends the matching credit
// Transaction row. There is no upper bound.
func (w *Wallet) Credit(ctx context.Context, idb bun.IDB, userID int64, amount decimal.Decimal, txnType models.TransactionType, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	balance, err := w.balanceForUpdate(ctx, idb, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := w.adjust(ctx, idb, userID, amount); err != nil {
		return decimal.Zero, err
	}
	if err := w.append(ctx, idb, userID, amount, txnType, description); err != nil {
		return decimal.Zero, err
	}
	return balance.Add(amount), nil
}

// Deposit is the public top-up operation: its own atomic unit, one
// DEPOSIT transaction, audited.
func (w *Wallet) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	var newBalance decimal.Decimal
	var username string
	err := w.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user := new(models.User)
		if err := tx.NewSelect().Model(user).Where("id = ?", userID).Limit(1).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrUserNotFound
			}
			return err
		}
		username = user.Username

		balance, err := w.Credit(ctx, tx, userID, amount, models.TxnDeposit, "Wallet top-up")
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	if w.Audit != nil {
		w.Audit.Record(ctx, username, "ADD_BALANCE", fmt.Sprintf("Added %s to wallet", amount))
	}
	return newBalance, nil
}

// Balance returns the user's current wallet balance.
func (w *Wallet) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var user models.User
	err := w.DB.NewSelect().Model(&user).Where("id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return user.WalletBalance, nil
}

// History returns the user's transaction ledger, newest first.
func (w *Wallet) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := w.DB.NewSelect().
		Model(&txns).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (w *Wallet) balanceForUpdate(ctx context.Context, idb bun.IDB, userID int64) (decimal.Decimal, error) {
	var user models.User
	q := idb.NewSelect().
		Model(&user).
		Column("wallet_balance").
		Where("id = ?", userID).
		Limit(1)
	if db.IsPostgres(idb) {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return user.WalletBalance, nil
}

func (w *Wallet) adjust(ctx context.Context, idb bun.IDB, userID int64, delta decimal.Decimal) error {
	_, err := idb.NewUpdate().
		Model((*models.User)(nil)).
		Set("wallet_balance = wallet_balance + ?", delta).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func (w *Wallet) append(ctx context.Context, idb bun.IDB, userID int64, amount decimal.Decimal, txnType models.TransactionType, description string) error {
	txn := &models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txnType,
		Description: description,
		CreatedAt:   time.Now(),
	}
	_, err := idb.NewInsert().Model(txn).Exec(ctx)
	return err
}
