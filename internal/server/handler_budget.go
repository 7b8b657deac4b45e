package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
)

// checkBudget answers a standalone availability probe. A shortfall is a
// normal 200 here; only malformed requests and closed-mode source failures
// error.
func (s *Server) checkBudget(c *gin.Context) {
	var req budgetdomain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	result, err := s.budget.Validate(c.Request.Context(), req)
	if err != nil {
		var budgetErr *budgetdomain.InsufficientBudgetError
		if errors.As(err, &budgetErr) {
			c.JSON(http.StatusOK, budgetErr.Result)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) searchAccounts(c *gin.Context) {
	prefix := strings.TrimSpace(c.Query("prefix"))
	accounts, err := s.accounts.Search(c.Request.Context(), prefix, 20)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}
