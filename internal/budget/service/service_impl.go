package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/budget/domain"
	"github.com/rsudds/bludpay/internal/config"
	"github.com/rsudds/bludpay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Metrics *metrics.Metrics `optional:"true"`
	Repo    domain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	metrics    *metrics.Metrics
	repo       domain.Repository
	failClosed bool
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log,
		metrics:    p.Metrics,
		repo:       p.Repo,
		failClosed: p.Config.BudgetFailClosed,
	}
}

// Validate answers a standalone availability check. It takes no bucket lock;
// use ValidateTx inside the voucher transaction for decisions that gate a
// write.
func (s *Service) Validate(ctx context.Context, req domain.ValidateRequest) (domain.Result, error) {
	return s.validate(ctx, s.db, req)
}

func (s *Service) ValidateTx(ctx context.Context, tx *gorm.DB, req domain.ValidateRequest) (domain.Result, error) {
	return s.validate(ctx, tx, req)
}

func (s *Service) LockBucket(ctx context.Context, tx *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) error {
	return s.repo.UpsertLock(ctx, tx, activityID, accountCode, fiscalYear)
}

func (s *Service) validate(ctx context.Context, db *gorm.DB, req domain.ValidateRequest) (domain.Result, error) {
	if err := validateRequest(req); err != nil {
		return domain.Result{}, err
	}

	figures, err := s.loadFigures(ctx, db, req)
	if err != nil {
		if s.failClosed {
			s.log.Error("budget source unavailable, rejecting",
				zap.Int64("activity_id", int64(req.ActivityID)),
				zap.String("account_code", req.AccountCode),
				zap.Error(err))
			return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		s.log.Warn("budget source unavailable, skipping validation",
			zap.Int64("activity_id", int64(req.ActivityID)),
			zap.String("account_code", req.AccountCode),
			zap.Error(err))
		return domain.Result{
			IsValid:   true,
			Requested: req.RequestedAmount,
			Message:   "budget validation skipped: data source unavailable",
		}, nil
	}

	result := domain.Result{
		Ceiling:      figures.ceiling,
		MonthlyLimit: figures.monthlyLimit,
		Realization:  figures.realization,
		Commitments:  figures.commitments,
		Available:    figures.ceiling - figures.realization - figures.commitments,
		Requested:    req.RequestedAmount,
	}
	if figures.monthlyLimit > 0 {
		result.MonthlyAvailable = figures.monthlyLimit - figures.realization - figures.commitments
	}

	if req.RequestedAmount > result.Available {
		result.Message = fmt.Sprintf("requested %d exceeds available %d", req.RequestedAmount, result.Available)
		s.metrics.RecordBudgetRejection("ceiling")
		return result, &domain.InsufficientBudgetError{Result: result}
	}
	if figures.monthlyLimit > 0 && req.RequestedAmount > result.MonthlyAvailable {
		result.Message = fmt.Sprintf("requested %d exceeds monthly available %d", req.RequestedAmount, result.MonthlyAvailable)
		s.metrics.RecordBudgetRejection("monthly_limit")
		return result, &domain.InsufficientBudgetError{Result: result}
	}

	result.IsValid = true
	return result, nil
}

type figures struct {
	ceiling      int64
	monthlyLimit int64
	realization  int64
	commitments  int64
}

func (s *Service) loadFigures(ctx context.Context, db *gorm.DB, req domain.ValidateRequest) (figures, error) {
	var f figures
	var err error

	if f.ceiling, err = s.repo.SumCeiling(ctx, db, req.ActivityID, req.SubActivityID, req.AccountCode, req.FiscalYear); err != nil {
		return f, fmt.Errorf("sum ceiling: %w", err)
	}
	if f.monthlyLimit, err = s.repo.SumMonthlyLimit(ctx, db, req.ActivityID, req.FiscalYear, req.Month); err != nil {
		return f, fmt.Errorf("sum monthly limit: %w", err)
	}
	if f.realization, err = s.repo.SumRealization(ctx, db, req.ActivityID, req.AccountCode, req.FiscalYear); err != nil {
		return f, fmt.Errorf("sum realization: %w", err)
	}
	if f.commitments, err = s.repo.SumCommitments(ctx, db, req.ActivityID, req.AccountCode, req.FiscalYear, req.ExcludeVoucherID); err != nil {
		return f, fmt.Errorf("sum commitments: %w", err)
	}
	return f, nil
}

func validateRequest(req domain.ValidateRequest) error {
	if req.ActivityID == 0 {
		return domain.ErrInvalidActivity
	}
	if req.AccountCode == "" {
		return domain.ErrInvalidAccountCode
	}
	if req.FiscalYear < 2000 || req.FiscalYear > 2100 {
		return domain.ErrInvalidFiscalYear
	}
	if req.Month < 1 || req.Month > 12 {
		return domain.ErrInvalidMonth
	}
	if req.RequestedAmount <= 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}
