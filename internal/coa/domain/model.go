// Package domain models the chart-of-accounts lookup consumed by voucher
// issuance. Account maintenance itself lives in a separate module.
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Account is one row of the chart of accounts. Header rows group leaf rows
// and are never valid on a voucher.
type Account struct {
	Code     string `gorm:"primaryKey;type:text" json:"code"`
	Name     string `gorm:"type:text;not null" json:"name"`
	IsHeader bool   `gorm:"not null;default:false" json:"is_header"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

type Repository interface {
	// LeafName resolves code to its active, non-header display name on the
	// given handle, which may be a transaction. Returns "" when no such
	// account exists.
	LeafName(ctx context.Context, db *gorm.DB, code string) (string, error)
	// Search lists active leaf accounts whose code starts with prefix.
	Search(ctx context.Context, prefix string, limit int) ([]Account, error)
}
