package service

import (
	"context"
	"fmt"

	"github.com/rsudds/bludpay/internal/observability/metrics"
	"github.com/rsudds/bludpay/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
	Repo    domain.Repository
}

type Service struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	repo    domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{log: p.Log, metrics: p.Metrics, repo: p.Repo}
}

func (s *Service) Next(ctx context.Context, tx *gorm.DB, req domain.NextRequest) (domain.Number, error) {
	if req.FiscalYear < 2000 || req.FiscalYear > 2100 ||
		req.Month < 1 || req.Month > 12 ||
		req.AccountCode == "" || req.UnitCode == "" {
		return domain.Number{}, domain.ErrInvalidBucket
	}

	value, err := s.repo.NextValue(ctx, tx, req)
	if err != nil {
		s.log.Error("document counter increment failed",
			zap.Int("fiscal_year", req.FiscalYear),
			zap.Int("month", req.Month),
			zap.String("account_code", req.AccountCode),
			zap.Error(err))
		return domain.Number{}, fmt.Errorf("%w: %v", domain.ErrCounterUnavailable, err)
	}

	s.metrics.RecordNumberIssued()
	return domain.Number{
		Sequence:       value,
		DocumentNumber: Format(value, req.AccountCode, req.Month, req.UnitCode, req.FiscalYear),
	}, nil
}

// Format renders a document number, e.g. "0001/5.2.2.01.01/03/RSUD-DS/2025".
func Format(sequence int64, accountCode string, month int, unitCode string, fiscalYear int) string {
	return fmt.Sprintf("%04d/%s/%02d/%s/%d", sequence, accountCode, month, unitCode, fiscalYear)
}
