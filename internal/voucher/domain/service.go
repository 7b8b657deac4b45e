package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	"github.com/rsudds/bludpay/pkg/db/pagination"
)

// SignatoryInput names one signing party on a create or update request.
type SignatoryInput struct {
	Role     string `json:"role"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
}

type CreateRequest struct {
	VoucherDate      time.Time        `json:"voucher_date"`
	ProgramID        snowflake.ID     `json:"program_id"`
	ProgramName      string           `json:"program_name"`
	ActivityID       snowflake.ID     `json:"activity_id"`
	ActivityName     string           `json:"activity_name"`
	SubActivityID    *snowflake.ID    `json:"sub_activity_id,omitempty"`
	SubActivityName  string           `json:"sub_activity_name"`
	AccountCode      string           `json:"account_code"`
	AccountName      string           `json:"account_name"`
	PayeeName        string           `json:"payee_name"`
	PayeeBankAccount *string          `json:"payee_bank_account,omitempty"`
	VendorTaxID      *string          `json:"vendor_tax_id,omitempty"`
	InvoiceNumber    *string          `json:"invoice_number,omitempty"`
	Description      string           `json:"description"`
	GrossAmount      int64            `json:"gross_amount"`
	Signatories      []SignatoryInput `json:"signatories"`
}

// UpdateRequest patches a DRAFT voucher. Nil fields are left untouched; a
// changed gross amount or account code re-runs budget validation and the
// tax calculation.
type UpdateRequest struct {
	ID               snowflake.ID      `json:"id"`
	VoucherDate      *time.Time        `json:"voucher_date,omitempty"`
	AccountCode      *string           `json:"account_code,omitempty"`
	AccountName      *string           `json:"account_name,omitempty"`
	PayeeName        *string           `json:"payee_name,omitempty"`
	PayeeBankAccount *string           `json:"payee_bank_account,omitempty"`
	VendorTaxID      *string           `json:"vendor_tax_id,omitempty"`
	InvoiceNumber    *string           `json:"invoice_number,omitempty"`
	Description      *string           `json:"description,omitempty"`
	GrossAmount      *int64            `json:"gross_amount,omitempty"`
	Signatories      *[]SignatoryInput `json:"signatories,omitempty"`
}

type ListRequest struct {
	pagination.Pagination
	Status     string
	FiscalYear int
	Month      int
	ActivityID snowflake.ID
}

type ListResponse struct {
	pagination.PageInfo
	Vouchers []PaymentVoucher `json:"vouchers"`
}

// PrintView bundles everything the document printer needs.
type PrintView struct {
	Voucher     PaymentVoucher      `json:"voucher"`
	Breakdown   taxdomain.Breakdown `json:"breakdown"`
	Budget      budgetdomain.Result `json:"budget"`
	Signatories []Signatory         `json:"signatories"`
}

// VerificationPayload is the compact content encoded into the printed QR.
type VerificationPayload struct {
	VoucherID      snowflake.ID `json:"voucher_id"`
	DocumentNumber string       `json:"document_number"`
	FiscalYear     int          `json:"fiscal_year"`
	GrossAmount    int64        `json:"gross_amount"`
	VoucherDate    time.Time    `json:"voucher_date"`
}

// VerificationResult is the public check contract. It deliberately exposes
// nothing beyond existence and type.
type VerificationResult struct {
	IsValid    bool   `json:"is_valid"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

// Service orchestrates the voucher lifecycle. Every mutation runs in one
// database transaction together with its audit entry.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PaymentVoucher, error)
	Update(ctx context.Context, req UpdateRequest) (*PaymentVoucher, error)
	Finalize(ctx context.Context, id snowflake.ID) (*PaymentVoucher, error)
	Delete(ctx context.Context, id snowflake.ID) error
	Get(ctx context.Context, id snowflake.ID) (*PaymentVoucher, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	LinkPaymentRequest(ctx context.Context, id, paymentRequestID snowflake.ID) (*PaymentVoucher, error)
	PrintView(ctx context.Context, id snowflake.ID) (*PrintView, error)
	VerificationPayload(ctx context.Context, id snowflake.ID) (VerificationPayload, error)
	Verify(ctx context.Context, id snowflake.ID) (VerificationResult, error)
}
