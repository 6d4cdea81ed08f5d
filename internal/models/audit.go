package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditRecord is a human-readable trace of a state-changing action.
// Records are written after the business transaction commits and are
// best-effort: losing one never unwinds the action it describes.
type AuditRecord struct {
	bun.BaseModel `bun:"table:audit_log"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Actor     string    `bun:"actor,notnull" json:"actor"`
	Action    string    `bun:"action,notnull" json:"action"`
	Details   string    `bun:"details" json:"details"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
