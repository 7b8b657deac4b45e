// Package domain holds the payment voucher aggregate and its lifecycle
// contract. A voucher is created DRAFT, finalized exactly once, and soft
// deleted only while still DRAFT.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusFinal Status = "FINAL"
)

// Signatory roles on the printed document.
const (
	RolePPTK        = "pptk"
	RoleBendahara   = "bendahara"
	RoleDirektur    = "direktur"
	RoleVerifikator = "verifikator"
)

// PaymentVoucher is the issuance document. Hierarchy names and the account
// name are cached at write time so prints survive later renames; budget
// figures are snapshotted from the validation that admitted the amount.
type PaymentVoucher struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentNumber string       `gorm:"type:text;not null;uniqueIndex" json:"document_number"`
	SequenceNumber int64        `gorm:"not null" json:"sequence_number"`
	FiscalYear     int          `gorm:"not null" json:"fiscal_year"`
	Month          int          `gorm:"not null" json:"month"`
	VoucherDate    time.Time    `gorm:"not null" json:"voucher_date"`

	ProgramID       snowflake.ID  `gorm:"not null" json:"program_id"`
	ProgramName     string        `gorm:"type:text;not null;default:''" json:"program_name"`
	ActivityID      snowflake.ID  `gorm:"not null;index" json:"activity_id"`
	ActivityName    string        `gorm:"type:text;not null;default:''" json:"activity_name"`
	SubActivityID   *snowflake.ID `json:"sub_activity_id,omitempty"`
	SubActivityName string        `gorm:"type:text;not null;default:''" json:"sub_activity_name"`
	AccountCode     string        `gorm:"type:text;not null" json:"account_code"`
	AccountName     string        `gorm:"type:text;not null;default:''" json:"account_name"`

	PayeeName        string  `gorm:"type:text;not null" json:"payee_name"`
	PayeeBankAccount *string `gorm:"type:text" json:"payee_bank_account,omitempty"`
	VendorTaxID      *string `gorm:"type:text" json:"vendor_tax_id,omitempty"`
	InvoiceNumber    *string `gorm:"type:text" json:"invoice_number,omitempty"`
	Description      string  `gorm:"type:text;not null;default:''" json:"description"`

	GrossAmount       int64   `gorm:"not null" json:"gross_amount"`
	PPNRate           float64 `gorm:"not null;default:0" json:"ppn_rate"`
	PPNAmount         int64   `gorm:"not null;default:0" json:"ppn_amount"`
	PPh21Rate         float64 `gorm:"not null;default:0" json:"pph21_rate"`
	PPh21Amount       int64   `gorm:"not null;default:0" json:"pph21_amount"`
	PPh22Rate         float64 `gorm:"not null;default:0" json:"pph22_rate"`
	PPh22Amount       int64   `gorm:"not null;default:0" json:"pph22_amount"`
	PPh23Rate         float64 `gorm:"not null;default:0" json:"pph23_rate"`
	PPh23Amount       int64   `gorm:"not null;default:0" json:"pph23_amount"`
	PPh26Rate         float64 `gorm:"not null;default:0" json:"pph26_rate"`
	PPh26Amount       int64   `gorm:"not null;default:0" json:"pph26_amount"`
	PPhFinalRate      float64 `gorm:"not null;default:0" json:"pph_final_rate"`
	PPhFinalAmount    int64   `gorm:"not null;default:0" json:"pph_final_amount"`
	RegionalTaxRate   float64 `gorm:"not null;default:0" json:"regional_tax_rate"`
	RegionalTaxAmount int64   `gorm:"not null;default:0" json:"regional_tax_amount"`
	TotalDeductions   int64   `gorm:"not null;default:0" json:"total_deductions"`
	NetPayment        int64   `gorm:"not null;default:0" json:"net_payment"`
	GrossInWords      string  `gorm:"type:text;not null;default:''" json:"gross_in_words"`
	TaxRuleID         *snowflake.ID `json:"tax_rule_id,omitempty"`

	Status Status `gorm:"type:text;not null;default:'DRAFT';index" json:"status"`

	BudgetCeiling      int64 `gorm:"not null;default:0" json:"budget_ceiling"`
	BudgetMonthlyLimit int64 `gorm:"not null;default:0" json:"budget_monthly_limit"`
	BudgetRealization  int64 `gorm:"not null;default:0" json:"budget_realization"`
	BudgetCommitments  int64 `gorm:"not null;default:0" json:"budget_commitments"`
	BudgetAvailable    int64 `gorm:"not null;default:0" json:"budget_available"`

	PaymentRequestID *snowflake.ID `json:"payment_request_id,omitempty"`
	FinalizedAt      *time.Time    `json:"finalized_at,omitempty"`

	CreatedBy string     `gorm:"type:text;not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedBy string     `gorm:"type:text;not null;default:''" json:"updated_by"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedBy *string    `gorm:"type:text" json:"deleted_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// TableName sets the database table name.
func (PaymentVoucher) TableName() string { return "payment_vouchers" }

// IsDraft reports whether the voucher still accepts mutations.
func (v *PaymentVoucher) IsDraft() bool { return v.Status == StatusDraft }

// Signatory is one signing party on the printed document.
type Signatory struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	VoucherID snowflake.ID `gorm:"not null;uniqueIndex:ux_voucher_signatories_role" json:"voucher_id"`
	Role      string       `gorm:"type:text;not null;uniqueIndex:ux_voucher_signatories_role" json:"role"`
	UserID    string       `gorm:"type:text;not null" json:"user_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	IDNumber  string       `gorm:"type:text;not null;default:''" json:"id_number"`
	SignedAt  *time.Time   `json:"signed_at,omitempty"`
	Notes     *string      `gorm:"type:text" json:"notes,omitempty"`
}

// TableName sets the database table name.
func (Signatory) TableName() string { return "voucher_signatories" }

// ValidRole reports whether role is one of the four signing roles.
func ValidRole(role string) bool {
	switch role {
	case RolePPTK, RoleBendahara, RoleDirektur, RoleVerifikator:
		return true
	}
	return false
}
