package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	Username      string          `bun:"username,unique,notnull" json:"username"`
	PasswordHash  string          `bun:"password_hash,notnull" json:"-"`
	WalletBalance decimal.Decimal `bun:"wallet_balance,notnull" json:"wallet_balance"`
	Role          Role            `bun:"role,notnull" json:"role"`
	CreatedAt     time.Time       `bun:"created_at,notnull" json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
