package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	voucherdomain "github.com/rsudds/bludpay/internal/voucher/domain"
	"github.com/rsudds/bludpay/pkg/db/pagination"
)

func (s *Server) createVoucher(c *gin.Context) {
	var req voucherdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	voucher, err := s.vouchers.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, voucher)
}

func (s *Server) getVoucher(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	voucher, err := s.vouchers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

func (s *Server) listVouchers(c *gin.Context) {
	req := voucherdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: c.Query("page_token"),
			PageSize:  queryInt32(c, "page_size"),
		},
		Status:     c.Query("status"),
		FiscalYear: queryInt(c, "fiscal_year"),
		Month:      queryInt(c, "month"),
	}
	if raw := strings.TrimSpace(c.Query("activity_id")); raw != "" {
		activityID, err := snowflake.ParseString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_activity_id"})
			return
		}
		req.ActivityID = activityID
	}

	resp, err := s.vouchers.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) updateVoucher(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req voucherdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}
	req.ID = id

	voucher, err := s.vouchers.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

func (s *Server) deleteVoucher(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.vouchers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) finalizeVoucher(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	voucher, err := s.vouchers.Finalize(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

func (s *Server) linkPaymentRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		PaymentRequestID snowflake.ID `json:"payment_request_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	voucher, err := s.vouchers.LinkPaymentRequest(c.Request.Context(), id, body.PaymentRequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

func (s *Server) printVoucher(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := s.vouchers.PrintView(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) verificationPayload(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	payload, err := s.vouchers.VerificationPayload(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// verifyVoucher is the public scan endpoint; it never leaks whether an id
// exists beyond the boolean.
func (s *Server) verifyVoucher(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusOK, voucherdomain.VerificationResult{})
		return
	}

	result, err := s.vouchers.Verify(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listAuditLogs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.audit.List(c.Request.Context(), auditdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: c.Query("page_token"),
			PageSize:  queryInt32(c, "page_size"),
		},
		VoucherID: id,
		Action:    c.Query("action"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pathID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	value, _ := strconv.Atoi(c.Query(key))
	return value
}

func queryInt32(c *gin.Context, key string) int32 {
	value, _ := strconv.ParseInt(c.Query(key), 10, 32)
	return int32(value)
}
