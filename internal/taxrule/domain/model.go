// Package domain contains withholding-tax rules and the calculation types
// used when a payment voucher is issued.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaxRule maps an account-code prefix to the withholding rates that apply
// to disbursements on matching accounts. Rates are percentages (11 = 11%).
//
// Several active rules may match one account code; the resolver picks the
// one with the longest pattern. The effective range is half-open:
// [EffectiveFrom, EffectiveTo), a nil EffectiveTo never expires.
type TaxRule struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountCodePattern string       `gorm:"type:text;not null;index" json:"account_code_pattern"`

	PPNRate      float64 `gorm:"not null;default:0" json:"ppn_rate"`
	PPh21Rate    float64 `gorm:"not null;default:0" json:"pph21_rate"`
	PPh22Rate    float64 `gorm:"not null;default:0" json:"pph22_rate"`
	PPh23Rate    float64 `gorm:"not null;default:0" json:"pph23_rate"`
	PPh26Rate    float64 `gorm:"not null;default:0" json:"pph26_rate"`
	PPhFinalRate float64 `gorm:"column:pph_final_rate;not null;default:0" json:"pph_final_rate"`

	// Regional tax (pajak daerah) is an estimate shown on the document; it
	// is never part of the deduction total.
	HasRegionalTax  bool    `gorm:"not null;default:false" json:"has_regional_tax"`
	RegionalTaxRate float64 `gorm:"not null;default:0" json:"regional_tax_rate"`

	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	EffectiveFrom time.Time  `gorm:"not null" json:"effective_from"`
	EffectiveTo   *time.Time `gorm:"" json:"effective_to"`
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedBy string    `gorm:"type:text;not null;default:''" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TaxRule) TableName() string { return "tax_rules" }

func (r *TaxRule) Validate() error {
	if strings.TrimSpace(r.AccountCodePattern) == "" {
		return ErrInvalidPattern
	}
	for _, rate := range []float64{
		r.PPNRate, r.PPh21Rate, r.PPh22Rate, r.PPh23Rate, r.PPh26Rate, r.PPhFinalRate, r.RegionalTaxRate,
	} {
		if rate < 0 || rate > 100 {
			return ErrInvalidRate
		}
	}
	if r.EffectiveTo != nil && !r.EffectiveFrom.Before(*r.EffectiveTo) {
		return ErrInvalidEffectiveRange
	}
	return nil
}

// EffectiveAt reports whether the rule applies on the given date.
func (r *TaxRule) EffectiveAt(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && !date.Before(*r.EffectiveTo) {
		return false
	}
	return true
}

// Matches reports whether the rule's pattern prefixes the account code.
func (r *TaxRule) Matches(accountCode string) bool {
	return strings.HasPrefix(accountCode, r.AccountCodePattern)
}
