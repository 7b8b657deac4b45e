package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CalculationInput describes one disbursement to compute deductions for.
// VendorTaxID is the payee's NPWP; when absent the PPh 23 rate doubles.
type CalculationInput struct {
	AccountCode     string     `json:"account_code"`
	GrossAmount     int64      `json:"gross_amount"`
	VendorTaxID     *string    `json:"vendor_tax_id,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
}

// Component is one computed deduction line.
type Component struct {
	Rate   float64 `json:"rate"`
	Amount int64   `json:"amount"`
}

// Breakdown is the full deduction calculation for one gross amount.
// TotalDeductions sums the six withholding components; the regional-tax
// estimate is informational and never subtracted.
type Breakdown struct {
	RuleID *snowflake.ID `json:"rule_id,omitempty"`

	PPN      Component `json:"ppn"`
	PPh21    Component `json:"pph21"`
	PPh22    Component `json:"pph22"`
	PPh23    Component `json:"pph23"`
	PPh26    Component `json:"pph26"`
	PPhFinal Component `json:"pph_final"`

	HasRegionalTax      bool      `json:"has_regional_tax"`
	RegionalTaxEstimate Component `json:"regional_tax_estimate"`

	TotalDeductions int64  `json:"total_deductions"`
	NetPayment      int64  `json:"net_payment"`
	GrossInWords    string `json:"gross_in_words"`
}

// Resolver selects the tax rule for an account code on a date.
type Resolver interface {
	// Resolve returns nil when no rule matches; the account is then
	// treated as non-taxable.
	Resolve(ctx context.Context, accountCode string, date time.Time) (*TaxRule, error)
}

// Calculator computes the deduction breakdown for a disbursement.
// CalculateTx resolves the rule on the caller's transaction handle so the
// calculation shares that transaction's connection and snapshot.
type Calculator interface {
	Calculate(ctx context.Context, input CalculationInput) (Breakdown, error)
	CalculateTx(ctx context.Context, tx *gorm.DB, input CalculationInput) (Breakdown, error)
}

type CreateRequest struct {
	AccountCodePattern string     `json:"account_code_pattern"`
	PPNRate            float64    `json:"ppn_rate"`
	PPh21Rate          float64    `json:"pph21_rate"`
	PPh22Rate          float64    `json:"pph22_rate"`
	PPh23Rate          float64    `json:"pph23_rate"`
	PPh26Rate          float64    `json:"pph26_rate"`
	PPhFinalRate       float64    `json:"pph_final_rate"`
	HasRegionalTax     bool       `json:"has_regional_tax"`
	RegionalTaxRate    float64    `json:"regional_tax_rate"`
	EffectiveFrom      time.Time  `json:"effective_from"`
	EffectiveTo        *time.Time `json:"effective_to,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
}

type UpdateRequest struct {
	ID              string     `json:"id"`
	PPNRate         *float64   `json:"ppn_rate,omitempty"`
	PPh21Rate       *float64   `json:"pph21_rate,omitempty"`
	PPh22Rate       *float64   `json:"pph22_rate,omitempty"`
	PPh23Rate       *float64   `json:"pph23_rate,omitempty"`
	PPh26Rate       *float64   `json:"pph26_rate,omitempty"`
	PPhFinalRate    *float64   `json:"pph_final_rate,omitempty"`
	HasRegionalTax  *bool      `json:"has_regional_tax,omitempty"`
	RegionalTaxRate *float64   `json:"regional_tax_rate,omitempty"`
	EffectiveTo     *time.Time `json:"effective_to,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

type ListRequest struct {
	AccountCode string
	ActiveOnly  bool
}

// Service manages the rule table.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*TaxRule, error)
	List(ctx context.Context, req ListRequest) ([]TaxRule, error)
	Update(ctx context.Context, req UpdateRequest) (*TaxRule, error)
	Disable(ctx context.Context, id string) (*TaxRule, error)
}
