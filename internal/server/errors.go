package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
	seqdomain "github.com/rsudds/bludpay/internal/sequence/domain"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	voucherdomain "github.com/rsudds/bludpay/internal/voucher/domain"
)

// respondError maps domain errors onto the HTTP status taxonomy:
// validation 400, not-found 404, forbidden 403, state conflicts 409,
// budget rejection 422, infrastructure 503.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var budgetErr *budgetdomain.InsufficientBudgetError
	if errors.As(err, &budgetErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  budgetErr.Error(),
			"code":   "insufficient_budget",
			"budget": budgetErr.Result,
		})
		return
	}

	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, voucherdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, voucherdomain.ErrNotCreator):
		return http.StatusForbidden

	case errors.Is(err, voucherdomain.ErrNotDraft),
		errors.Is(err, voucherdomain.ErrNotFinal),
		errors.Is(err, voucherdomain.ErrAlreadyLinked),
		errors.Is(err, voucherdomain.ErrVoucherPeriodChange),
		errors.Is(err, voucherdomain.ErrDuplicateDocumentNumber):
		return http.StatusConflict

	case errors.Is(err, budgetdomain.ErrSourceUnavailable),
		errors.Is(err, seqdomain.ErrCounterUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, voucherdomain.ErrInvalidID),
		errors.Is(err, voucherdomain.ErrInvalidVoucherDate),
		errors.Is(err, voucherdomain.ErrInvalidProgram),
		errors.Is(err, voucherdomain.ErrInvalidActivity),
		errors.Is(err, voucherdomain.ErrInvalidAccountCode),
		errors.Is(err, voucherdomain.ErrInvalidPayeeName),
		errors.Is(err, voucherdomain.ErrInvalidGrossAmount),
		errors.Is(err, voucherdomain.ErrInvalidSignatoryRole),
		errors.Is(err, voucherdomain.ErrDuplicateSignatory),
		errors.Is(err, voucherdomain.ErrInvalidPageToken),
		errors.Is(err, taxdomain.ErrInvalidPattern),
		errors.Is(err, taxdomain.ErrInvalidRate),
		errors.Is(err, taxdomain.ErrInvalidEffectiveRange),
		errors.Is(err, taxdomain.ErrInvalidGrossAmount),
		errors.Is(err, taxdomain.ErrInvalidID),
		errors.Is(err, budgetdomain.ErrInvalidActivity),
		errors.Is(err, budgetdomain.ErrInvalidAccountCode),
		errors.Is(err, budgetdomain.ErrInvalidFiscalYear),
		errors.Is(err, budgetdomain.ErrInvalidMonth),
		errors.Is(err, budgetdomain.ErrInvalidAmount),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, seqdomain.ErrInvalidBucket):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
