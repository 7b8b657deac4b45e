package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ValidateRequest identifies the budget bucket and the amount to commit.
// ExcludeVoucherID keeps a voucher's own pending amount from counting
// against itself on update and finalize.
type ValidateRequest struct {
	ActivityID       snowflake.ID  `json:"activity_id"`
	SubActivityID    *snowflake.ID `json:"sub_activity_id,omitempty"`
	AccountCode      string        `json:"account_code"`
	FiscalYear       int           `json:"fiscal_year"`
	Month            int           `json:"month"`
	RequestedAmount  int64         `json:"requested_amount"`
	ExcludeVoucherID snowflake.ID  `json:"exclude_voucher_id,omitempty"`
}

// Result carries the figures behind a validation decision. The figures are
// snapshotted onto the voucher for audit and display.
type Result struct {
	IsValid          bool   `json:"is_valid"`
	Ceiling          int64  `json:"ceiling"`
	MonthlyLimit     int64  `json:"monthly_limit"`
	Realization      int64  `json:"realization"`
	Commitments      int64  `json:"commitments"`
	Available        int64  `json:"available"`
	MonthlyAvailable int64  `json:"monthly_available"`
	Requested        int64  `json:"requested"`
	Message          string `json:"message,omitempty"`
}

// Service validates requested amounts against the budget ledger.
type Service interface {
	Validate(ctx context.Context, req ValidateRequest) (Result, error)
	// ValidateTx runs the same checks on the caller's transaction so the
	// decision shares the bucket lock with the subsequent write.
	ValidateTx(ctx context.Context, tx *gorm.DB, req ValidateRequest) (Result, error)
	// LockBucket serializes concurrent validators for one bucket. Must be
	// called inside a transaction, before ValidateTx.
	LockBucket(ctx context.Context, tx *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) error
}

var (
	ErrInvalidActivity    = errors.New("invalid_activity")
	ErrInvalidAccountCode = errors.New("invalid_account_code")
	ErrInvalidFiscalYear  = errors.New("invalid_fiscal_year")
	ErrInvalidMonth       = errors.New("invalid_month")
	ErrInvalidAmount      = errors.New("invalid_requested_amount")
	// ErrSourceUnavailable is returned instead of the degrade-open result
	// when the service runs fail-closed.
	ErrSourceUnavailable = errors.New("budget_source_unavailable")
)

// InsufficientBudgetError rejects a requested amount with the shortfall
// figures attached.
type InsufficientBudgetError struct {
	Result Result
}

func (e *InsufficientBudgetError) Error() string {
	if e.Result.MonthlyLimit > 0 && e.Result.Requested > e.Result.MonthlyAvailable {
		return fmt.Sprintf("requested %d exceeds monthly available %d (limit %d)",
			e.Result.Requested, e.Result.MonthlyAvailable, e.Result.MonthlyLimit)
	}
	return fmt.Sprintf("requested %d exceeds available %d (ceiling %d, realization %d, commitments %d)",
		e.Result.Requested, e.Result.Available, e.Result.Ceiling, e.Result.Realization, e.Result.Commitments)
}
