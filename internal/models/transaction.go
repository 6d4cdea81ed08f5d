package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TransactionType string

const (
	TxnDeposit  TransactionType = "DEPOSIT"
	TxnPurchase TransactionType = "PURCHASE"
	TxnRefund   TransactionType = "REFUND"
)

// Transaction is one row of the append-only wallet ledger. Amounts are
// signed: negative for debits, positive for credits. Rows are never
// updated or deleted; corrections are new rows.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64           `bun:"user_id,notnull" json:"user_id"`
	Amount      decimal.Decimal `bun:"amount,notnull" json:"amount"`
	Type        TransactionType `bun:"type,notnull" json:"type"`
	Description string          `bun:"description" json:"description"`
	CreatedAt   time.Time       `bun:"created_at,notnull" json:"created_at"`
}
