// Package domain contains the budget figures consulted before a payment
// voucher may commit funds. The allocation, cash-plan and payment
// instruction tables are owned by the planning and treasury modules; this
// service only reads them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusApproved  = "APPROVED"
	StatusDisbursed = "DISBURSED"
)

// BudgetAllocation is one approved ceiling row (pagu) for an activity,
// account and fiscal year.
type BudgetAllocation struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	ActivityID    snowflake.ID  `gorm:"not null;index" json:"activity_id"`
	SubActivityID *snowflake.ID `gorm:"index" json:"sub_activity_id,omitempty"`
	AccountCode   string        `gorm:"type:text;not null" json:"account_code"`
	FiscalYear    int           `gorm:"not null" json:"fiscal_year"`
	Amount        int64         `gorm:"not null;default:0" json:"amount"`
	Status        string        `gorm:"type:text;not null;default:'APPROVED'" json:"status"`
}

// TableName sets the database table name.
func (BudgetAllocation) TableName() string { return "budget_allocations" }

// CashPlan is one approved monthly disbursement cap row (RAK).
type CashPlan struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ActivityID snowflake.ID `gorm:"not null;index" json:"activity_id"`
	FiscalYear int          `gorm:"not null" json:"fiscal_year"`
	Month      int          `gorm:"not null" json:"month"`
	Amount     int64        `gorm:"not null;default:0" json:"amount"`
	Status     string       `gorm:"type:text;not null;default:'APPROVED'" json:"status"`
}

// TableName sets the database table name.
func (CashPlan) TableName() string { return "cash_plans" }

// PaymentInstruction is a downstream disbursement document; approved and
// disbursed rows count as realization against the ceiling.
type PaymentInstruction struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ActivityID  snowflake.ID `gorm:"not null;index" json:"activity_id"`
	AccountCode string       `gorm:"type:text;not null" json:"account_code"`
	FiscalYear  int          `gorm:"not null" json:"fiscal_year"`
	Amount      int64        `gorm:"not null;default:0" json:"amount"`
	Status      string       `gorm:"type:text;not null" json:"status"`
}

// TableName sets the database table name.
func (PaymentInstruction) TableName() string { return "payment_instructions" }

// BudgetLock serializes validation+write per budget bucket. A row is
// upserted inside the voucher transaction; the row lock it takes holds
// until commit.
type BudgetLock struct {
	ActivityID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	AccountCode string       `gorm:"primaryKey;type:text"`
	FiscalYear  int          `gorm:"primaryKey;autoIncrement:false"`
	LockedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BudgetLock) TableName() string { return "budget_locks" }
