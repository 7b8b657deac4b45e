// Package server exposes the voucher issuance HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	budgetdomain "github.com/rsudds/bludpay/internal/budget/domain"
	coadomain "github.com/rsudds/bludpay/internal/coa/domain"
	"github.com/rsudds/bludpay/internal/config"
	"github.com/rsudds/bludpay/internal/observability/logger"
	"github.com/rsudds/bludpay/internal/observability/metrics"
	"github.com/rsudds/bludpay/internal/observability/tracing"
	taxdomain "github.com/rsudds/bludpay/internal/taxrule/domain"
	voucherdomain "github.com/rsudds/bludpay/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics

	Vouchers voucherdomain.Service
	TaxRules taxdomain.Service
	Preview  taxdomain.Calculator
	Budget   budgetdomain.Service
	Audit    auditdomain.Service
	Accounts coadomain.Repository
}

type Server struct {
	engine *gin.Engine
	log    *zap.Logger

	vouchers voucherdomain.Service
	taxRules taxdomain.Service
	preview  taxdomain.Calculator
	budget   budgetdomain.Service
	audit    auditdomain.Service
	accounts coadomain.Repository
}

func NewServer(p Params) *Server {
	if p.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:   gin.New(),
		log:      p.Log.Named("server"),
		vouchers: p.Vouchers,
		taxRules: p.TaxRules,
		preview:  p.Preview,
		budget:   p.Budget,
		audit:    p.Audit,
		accounts: p.Accounts,
	}

	s.engine.Use(
		gin.Recovery(),
		logger.GinMiddleware(p.Log),
		tracing.GinMiddleware(),
		metricsMiddleware(p.Metrics),
	)
	s.routes(p.Metrics)
	return s
}

// Handler exposes the router for tests and the fx-run HTTP server.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes(m *metrics.Metrics) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	// Public QR verification, no actor required.
	s.engine.GET("/v/:id", s.verifyVoucher)

	v1 := s.engine.Group("/v1", actorMiddleware())
	{
		v1.POST("/vouchers", s.createVoucher)
		v1.GET("/vouchers", s.listVouchers)
		v1.GET("/vouchers/:id", s.getVoucher)
		v1.PATCH("/vouchers/:id", s.updateVoucher)
		v1.DELETE("/vouchers/:id", s.deleteVoucher)
		v1.POST("/vouchers/:id/finalize", s.finalizeVoucher)
		v1.POST("/vouchers/:id/payment-request", s.linkPaymentRequest)
		v1.GET("/vouchers/:id/print", s.printVoucher)
		v1.GET("/vouchers/:id/verification", s.verificationPayload)
		v1.GET("/vouchers/:id/audit-logs", s.listAuditLogs)

		v1.POST("/tax-rules", s.createTaxRule)
		v1.GET("/tax-rules", s.listTaxRules)
		v1.PATCH("/tax-rules/:id", s.updateTaxRule)
		v1.POST("/tax-rules/:id/disable", s.disableTaxRule)
		v1.POST("/tax-rules/preview", s.previewCalculation)

		v1.POST("/budget/check", s.checkBudget)
		v1.GET("/accounts", s.searchAccounts)
	}
}

// Module provides the server and runs it on the fx lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(serve),
)

func serve(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: s.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
