package domain

import "errors"

var (
	ErrInvalidPattern        = errors.New("invalid_account_code_pattern")
	ErrInvalidRate           = errors.New("invalid_tax_rate")
	ErrInvalidEffectiveRange = errors.New("invalid_effective_range")
	ErrInvalidGrossAmount    = errors.New("invalid_gross_amount")
	ErrInvalidID             = errors.New("invalid_id")
	ErrNotFound              = errors.New("tax_rule_not_found")
)
