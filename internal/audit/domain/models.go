// Package domain contains the append-only audit trail for voucher mutations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Action classifies a mutation on a payment voucher.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// AuditLog is one immutable history entry. Entries are written in the same
// transaction as the mutation they describe and are never updated.
type AuditLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	VoucherID   snowflake.ID      `gorm:"not null;index" json:"voucher_id"`
	Action      Action            `gorm:"type:text;not null" json:"action"`
	OldStatus   *string           `gorm:"type:text" json:"old_status"`
	NewStatus   *string           `gorm:"type:text" json:"new_status"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	PerformedBy string            `gorm:"type:text;not null" json:"performed_by"`
	PerformedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"performed_at"`
	RequestID   *string           `gorm:"type:text" json:"request_id,omitempty"`
	IPAddress   *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent   *string           `gorm:"type:text" json:"user_agent,omitempty"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
