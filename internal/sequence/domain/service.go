// Package domain issues gap-tolerant, strictly increasing document numbers
// per (fiscal year, month, account code, unit code) bucket.
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// NextRequest identifies the numbering bucket.
type NextRequest struct {
	FiscalYear  int
	Month       int
	AccountCode string
	UnitCode    string
}

// Number is one issued document number.
type Number struct {
	Sequence       int64  `json:"sequence"`
	DocumentNumber string `json:"document_number"`
}

// Service hands out the next document number for a bucket. Next must run on
// the caller's transaction so a rolled-back voucher burns its number instead
// of reusing it out of order.
type Service interface {
	Next(ctx context.Context, tx *gorm.DB, req NextRequest) (Number, error)
}

var (
	ErrInvalidBucket = errors.New("invalid_numbering_bucket")
	// ErrCounterUnavailable aborts the enclosing operation; numbering has no
	// degraded mode.
	ErrCounterUnavailable = errors.New("document_counter_unavailable")
)
