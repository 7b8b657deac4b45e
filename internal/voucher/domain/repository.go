package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists vouchers and their signatories. Mutations take the
// caller's transaction handle; FindByID locks the row when lock is set (on
// dialects that support it).
type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, voucher *PaymentVoucher) error
	Save(ctx context.Context, tx *gorm.DB, voucher *PaymentVoucher) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*PaymentVoucher, error)
	List(ctx context.Context, req ListRequest, limit int) ([]*PaymentVoucher, error)

	InsertSignatories(ctx context.Context, tx *gorm.DB, rows []Signatory) error
	ReplaceSignatories(ctx context.Context, tx *gorm.DB, voucherID snowflake.ID, rows []Signatory) error
	Signatories(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]Signatory, error)
}
