package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository aggregates the budget figures for one bucket. Every method
// runs on the handle it is given so callers can keep all reads inside one
// transaction.
type Repository interface {
	SumCeiling(ctx context.Context, db *gorm.DB, activityID snowflake.ID, subActivityID *snowflake.ID, accountCode string, fiscalYear int) (int64, error)
	SumMonthlyLimit(ctx context.Context, db *gorm.DB, activityID snowflake.ID, fiscalYear, month int) (int64, error)
	SumRealization(ctx context.Context, db *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) (int64, error)
	SumCommitments(ctx context.Context, db *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int, excludeVoucherID snowflake.ID) (int64, error)
	UpsertLock(ctx context.Context, tx *gorm.DB, activityID snowflake.ID, accountCode string, fiscalYear int) error
}
