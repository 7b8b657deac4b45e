package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/budget/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) SumCeiling(ctx context.Context, db *gorm.DB, activityID snowflake.ID, subActivityID *snowflake.ID, accountCode string, fiscalYear int) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.BudgetAllocation{}).
		Where("activity_id = ? AND account_code = ? AND fiscal_year = ? AND status = ?",
			activityID, accountCode, fiscalYear, domain.StatusApproved)
	if subActivityID != nil && *subActivityID != 0 {
		stmt = stmt.Where("sub_activity_id = ?", *subActivityID)
	}
	return sumAmount(stmt)
}

func (r *repository) SumMonthlyLimit(ctx context.Context, db *gorm.DB, activityID snowflake.ID, fiscalYear, month int) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.CashPlan{}).
		Where("activity_id = ? AND fiscal_year = ? AND month = ? AND status = ?",
			activityID, fiscalYear, month, domain.StatusApproved)
	return sumAmount(stmt)
}

func (r *repository) SumRealization(ctx context.Context, db *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.PaymentInstruction{}).
		Where("activity_id = ? AND account_code = ? AND fiscal_year = ? AND status IN ?",
			activityID, accountCode, fiscalYear, []string{domain.StatusApproved, domain.StatusDisbursed})
	return sumAmount(stmt)
}

// SumCommitments totals finalized vouchers in the bucket that have not yet
// been converted into a payment request.
func (r *repository) SumCommitments(ctx context.Context, db *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int, excludeVoucherID snowflake.ID) (int64, error) {
	stmt := db.WithContext(ctx).
		Table("payment_vouchers").
		Select("COALESCE(SUM(gross_amount), 0)").
		Where("activity_id = ? AND account_code = ? AND fiscal_year = ?", activityID, accountCode, fiscalYear).
		Where("status = ?", "FINAL").
		Where("payment_request_id IS NULL").
		Where("deleted_at IS NULL")
	if excludeVoucherID != 0 {
		stmt = stmt.Where("id <> ?", excludeVoucherID)
	}

	var total int64
	if err := stmt.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpsertLock takes (and holds until commit) the row lock for one bucket.
func (r *repository) UpsertLock(ctx context.Context, tx *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) error {
	now := time.Now().UTC()
	if tx.Dialector.Name() == "mysql" {
		return tx.WithContext(ctx).Exec(
			`INSERT INTO budget_locks (activity_id, account_code, fiscal_year, locked_at)
			 VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE locked_at = ?`,
			activityID, accountCode, fiscalYear, now, now,
		).Error
	}
	return tx.WithContext(ctx).Exec(
		`INSERT INTO budget_locks (activity_id, account_code, fiscal_year, locked_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (activity_id, account_code, fiscal_year)
		 DO UPDATE SET locked_at = ?`,
		activityID, accountCode, fiscalYear, now, now,
	).Error
}

func sumAmount(stmt *gorm.DB) (int64, error) {
	var total int64
	if err := stmt.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
