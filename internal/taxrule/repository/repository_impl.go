package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/taxrule/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) FindEffective(ctx context.Context, date time.Time) ([]domain.TaxRule, error) {
	return findEffective(ctx, r.db, date)
}

func (r *repository) FindEffectiveTx(ctx context.Context, tx *gorm.DB, date time.Time) ([]domain.TaxRule, error) {
	return findEffective(ctx, tx, date)
}

func findEffective(ctx context.Context, db *gorm.DB, date time.Time) ([]domain.TaxRule, error) {
	var rules []domain.TaxRule
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("effective_from <= ?", date).
		Where("(effective_to IS NULL OR effective_to > ?)", date).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Create(ctx context.Context, rule *domain.TaxRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.TaxRule, error) {
	var rule domain.TaxRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) List(ctx context.Context, req domain.ListRequest) ([]domain.TaxRule, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.TaxRule{})
	if req.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if code := strings.TrimSpace(req.AccountCode); code != "" {
		// Match rules whose pattern prefixes the given account code.
		// mysql concatenates with CONCAT, not ||.
		if r.db.Dialector.Name() == "mysql" {
			stmt = stmt.Where("? LIKE CONCAT(account_code_pattern, '%')", code)
		} else {
			stmt = stmt.Where("? LIKE account_code_pattern || '%'", code)
		}
	}

	var rules []domain.TaxRule
	err := stmt.Order("account_code_pattern ASC, created_at DESC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Update(ctx context.Context, rule *domain.TaxRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}
