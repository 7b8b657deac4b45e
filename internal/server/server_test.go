package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	auditrepo "github.com/rsudds/bludpay/internal/audit/repository"
	auditservice "github.com/rsudds/bludpay/internal/audit/service"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
	budgetrepo "github.com/rsudds/bludpay/internal/budget/repository"
	budgetservice "github.com/rsudds/bludpay/internal/budget/service"
	"github.com/rsudds/bludpay/internal/clock"
	"github.com/rsudds/bludpay/internal/coa"
	coadomain "github.com/rsudds/bludpay/internal/coa/domain"
	"github.com/rsudds/bludpay/internal/config"
	"github.com/rsudds/bludpay/internal/observability/metrics"
	seqdomain "github.com/rsudds/bludpay/internal/sequence/domain"
	seqrepo "github.com/rsudds/bludpay/internal/sequence/repository"
	seqservice "github.com/rsudds/bludpay/internal/sequence/service"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	taxrepo "github.com/rsudds/bludpay/internal/taxrule/repository"
	taxservice "github.com/rsudds/bludpay/internal/taxrule/service"
	voucherdomain "github.com/rsudds/bludpay/internal/voucher/domain"
	voucherrepo "github.com/rsudds/bludpay/internal/voucher/repository"
	voucherservice "github.com/rsudds/bludpay/internal/voucher/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testAPI struct {
	server     *Server
	db         *gorm.DB
	node       *snowflake.Node
	activityID snowflake.ID
	programID  snowflake.ID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&taxdomain.TaxRule{},
		&budgetdomain.BudgetAllocation{},
		&budgetdomain.CashPlan{},
		&budgetdomain.PaymentInstruction{},
		&budgetdomain.BudgetLock{},
		&seqdomain.DocumentCounter{},
		&voucherdomain.PaymentVoucher{},
		&voucherdomain.Signatory{},
		&auditdomain.AuditLog{},
		&coadomain.Account{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)
	cfg := config.Config{AppName: "bludpay", UnitCode: "RSUD-DS", HTTPPort: "8080"}

	taxSvc := taxservice.NewService(taxservice.Params{
		Log: log, GenID: node, Clock: fake, Repo: taxrepo.NewRepository(db),
	})
	budgetSvc := budgetservice.NewService(budgetservice.Params{
		DB: db, Log: log, Config: cfg, Repo: budgetrepo.Provide(),
	})
	seqSvc := seqservice.NewService(seqservice.Params{Log: log, Repo: seqrepo.Provide()})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepo.Provide(),
	})
	accounts := coa.NewRepository(db)
	voucherSvc := voucherservice.NewService(voucherservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Config: cfg,
		Repo:       voucherrepo.Provide(db),
		Budget:     budgetSvc,
		Calculator: taxservice.NewCalculator(taxSvc),
		Sequencer:  seqSvc,
		Audit:      auditSvc,
		Accounts:   accounts,
	})

	server := NewServer(Params{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics.New(),
		Vouchers: voucherSvc,
		TaxRules: taxservice.NewManagement(taxSvc),
		Preview:  taxservice.NewCalculator(taxSvc),
		Budget:   budgetSvc,
		Audit:    auditSvc,
		Accounts: accounts,
	})

	return &testAPI{
		server:     server,
		db:         db,
		node:       node,
		activityID: node.Generate(),
		programID:  node.Generate(),
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func asBendahara() map[string]string {
	return map[string]string{"X-User-Id": "bendahara-1", "X-User-Name": "Budi Santoso"}
}

func (a *testAPI) seedAllocation(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, a.db.Create(&budgetdomain.BudgetAllocation{
		ID:          a.node.Generate(),
		ActivityID:  a.activityID,
		AccountCode: "5.2.2.01.01",
		FiscalYear:  2025,
		Amount:      amount,
		Status:      budgetdomain.StatusApproved,
	}).Error)
}

func (a *testAPI) voucherBody(gross int64) map[string]any {
	return map[string]any{
		"voucher_date": "2025-03-10T00:00:00Z",
		"program_id":   a.programID.String(),
		"program_name": "Program Pelayanan Kesehatan",
		"activity_id":  a.activityID.String(),
		"activity_name": "Pengadaan Obat",
		"account_code": "5.2.2.01.01",
		"account_name": "Belanja Obat-obatan",
		"payee_name":   "CV Sumber Makmur",
		"description":  "Pembayaran pengadaan obat",
		"gross_amount": gross,
		"signatories": []map[string]any{
			{"role": "pptk", "user_id": "pptk-1", "name": "Dewi Lestari"},
		},
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVoucherEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.seedAllocation(t, 50_000_000)

	rec := api.do(t, http.MethodPost, "/v1/vouchers", api.voucherBody(10_000_000), asBendahara())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created voucherdomain.PaymentVoucher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "0001/5.2.2.01.01/03/RSUD-DS/2025", created.DocumentNumber)
	assert.Equal(t, "bendahara-1", created.CreatedBy)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/vouchers/%s", created.ID), nil, asBendahara())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/vouchers?status=DRAFT", nil, asBendahara())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Finalize by someone else is forbidden.
	rec = api.do(t, http.MethodPost, fmt.Sprintf("/v1/vouchers/%s/finalize", created.ID), nil,
		map[string]string{"X-User-Id": "bendahara-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/v1/vouchers/%s/finalize", created.ID), nil, asBendahara())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Draft-only mutations now conflict.
	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/v1/vouchers/%s", created.ID), nil, asBendahara())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/vouchers/%s/print", created.ID), nil, asBendahara())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/vouchers/%s/audit-logs", created.ID), nil, asBendahara())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Public verification needs no identity headers.
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v/%s", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result voucherdomain.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
	assert.Equal(t, "payment_voucher", result.TargetType)

	rec = api.do(t, http.MethodGet, "/v/999999", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
}

func TestInsufficientBudgetMapsTo422(t *testing.T) {
	api := newTestAPI(t)
	api.seedAllocation(t, 5_000_000)

	rec := api.do(t, http.MethodPost, "/v1/vouchers", api.voucherBody(6_000_000), asBendahara())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var body struct {
		Code   string              `json:"code"`
		Budget budgetdomain.Result `json:"budget"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_budget", body.Code)
	assert.Equal(t, int64(5_000_000), body.Budget.Available)
}

func TestVoucherNotFoundMapsTo404(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, fmt.Sprintf("/v1/vouchers/%s", api.node.Generate()), nil, asBendahara())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaxRulePreviewEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/tax-rules", map[string]any{
		"account_code_pattern": "5.2.2",
		"ppn_rate":             11,
		"effective_from":       "2025-01-01T00:00:00Z",
	}, asBendahara())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/v1/tax-rules/preview", map[string]any{
		"account_code":     "5.2.2.01.01",
		"gross_amount":     10_000_000,
		"vendor_tax_id":    "01.234.567.8-901.000",
		"transaction_date": "2025-03-10T00:00:00Z",
	}, asBendahara())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var breakdown taxdomain.Breakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	assert.Equal(t, int64(1_100_000), breakdown.TotalDeductions)
	assert.Equal(t, int64(8_900_000), breakdown.NetPayment)

	rec = api.do(t, http.MethodPost, "/v1/tax-rules", map[string]any{
		"account_code_pattern": "",
		"effective_from":       "2025-01-01T00:00:00Z",
	}, asBendahara())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBudgetCheckEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.seedAllocation(t, 5_000_000)

	rec := api.do(t, http.MethodPost, "/v1/budget/check", map[string]any{
		"activity_id":      api.activityID.String(),
		"account_code":     "5.2.2.01.01",
		"fiscal_year":      2025,
		"month":            3,
		"requested_amount": 6_000_000,
	}, asBendahara())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result budgetdomain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.Equal(t, int64(5_000_000), result.Available)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodGet, "/healthz", nil, nil)

	rec := api.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bludpay_vouchers_created_total")
	assert.Contains(t, rec.Body.String(), "bludpay_http_requests_total")
}
