package domain

import "errors"

var (
	ErrNotFound = errors.New("voucher_not_found")

	ErrDuplicateDocumentNumber = errors.New("duplicate_document_number")

	ErrNotDraft      = errors.New("voucher_not_draft")
	ErrNotFinal      = errors.New("voucher_not_final")
	ErrNotCreator    = errors.New("voucher_finalize_creator_only")
	ErrAlreadyLinked = errors.New("voucher_already_linked")

	// ErrVoucherPeriodChange rejects date edits that leave the month or
	// fiscal year the document number was issued for.
	ErrVoucherPeriodChange = errors.New("voucher_period_immutable")

	ErrInvalidID            = errors.New("invalid_voucher_id")
	ErrInvalidVoucherDate   = errors.New("invalid_voucher_date")
	ErrInvalidProgram       = errors.New("invalid_program")
	ErrInvalidActivity      = errors.New("invalid_activity")
	ErrInvalidAccountCode   = errors.New("invalid_account_code")
	ErrInvalidPayeeName     = errors.New("invalid_payee_name")
	ErrInvalidGrossAmount   = errors.New("invalid_gross_amount")
	ErrInvalidSignatoryRole = errors.New("invalid_signatory_role")
	ErrDuplicateSignatory   = errors.New("duplicate_signatory_role")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)
