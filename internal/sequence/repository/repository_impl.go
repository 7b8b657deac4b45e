package repository

import (
	"context"

	"github.com/rsudds/bludpay/internal/sequence/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

// NextValue bumps the bucket counter with a single upsert so concurrent
// callers never read the same value. The first call for a bucket seeds the
// row at 1.
func (r *repository) NextValue(ctx context.Context, tx *gorm.DB, req domain.NextRequest) (int64, error) {
	if tx.Dialector.Name() == "mysql" {
		return r.nextValueMySQL(ctx, tx, req)
	}

	var value int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO document_counters (fiscal_year, month, account_code, unit_code, last_value)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT (fiscal_year, month, account_code, unit_code)
		 DO UPDATE SET last_value = document_counters.last_value + 1
		 RETURNING last_value`,
		req.FiscalYear, req.Month, req.AccountCode, req.UnitCode,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// mysql has no RETURNING; LAST_INSERT_ID(expr) carries the new value back on
// the same connection.
func (r *repository) nextValueMySQL(ctx context.Context, tx *gorm.DB, req domain.NextRequest) (int64, error) {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO document_counters (fiscal_year, month, account_code, unit_code, last_value)
		 VALUES (?, ?, ?, ?, LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE last_value = LAST_INSERT_ID(last_value + 1)`,
		req.FiscalYear, req.Month, req.AccountCode, req.UnitCode,
	).Error
	if err != nil {
		return 0, err
	}

	var value int64
	if err := tx.WithContext(ctx).Raw(`SELECT LAST_INSERT_ID()`).Scan(&value).Error; err != nil {
		return 0, err
	}
	return value, nil
}
