package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
)

func (s *Server) createTaxRule(c *gin.Context) {
	var req taxdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	rule, err := s.taxRules.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) listTaxRules(c *gin.Context) {
	rules, err := s.taxRules.List(c.Request.Context(), taxdomain.ListRequest{
		AccountCode: c.Query("account_code"),
		ActiveOnly:  c.Query("active_only") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax_rules": rules})
}

func (s *Server) updateTaxRule(c *gin.Context) {
	var req taxdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}
	req.ID = c.Param("id")

	rule, err := s.taxRules.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) disableTaxRule(c *gin.Context) {
	rule, err := s.taxRules.Disable(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// previewCalculation computes a deduction breakdown without touching any
// voucher, for the entry form.
func (s *Server) previewCalculation(c *gin.Context) {
	var input taxdomain.CalculationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	breakdown, err := s.preview.Calculate(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}
