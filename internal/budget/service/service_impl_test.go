package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rsudds/bludpay/internal/budget/domain"
	"github.com/rsudds/bludpay/internal/budget/repository"
	voucherdomain "github.com/rsudds/bludpay/internal/voucher/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, failClosed bool) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.BudgetAllocation{},
		&domain.CashPlan{},
		&domain.PaymentInstruction{},
		&domain.BudgetLock{},
		&voucherdomain.PaymentVoucher{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := &Service{
		db:         db,
		log:        zaptest.NewLogger(t),
		repo:       repository.Provide(),
		failClosed: failClosed,
	}
	return svc, db, node
}

func seedAllocation(t *testing.T, db *gorm.DB, node *snowflake.Node, activityID snowflake.ID, accountCode string, amount int64) {
	t.Helper()
	require.NoError(t, db.Create(&domain.BudgetAllocation{
		ID:          node.Generate(),
		ActivityID:  activityID,
		AccountCode: accountCode,
		FiscalYear:  2025,
		Amount:      amount,
		Status:      domain.StatusApproved,
	}).Error)
}

func TestValidateRejectsOverCeiling(t *testing.T) {
	svc, db, node := newTestService(t, false)
	activityID := node.Generate()
	seedAllocation(t, db, node, activityID, "5.2.2.01.01", 5_000_000)

	_, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      activityID,
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 6_000_000,
	})

	var budgetErr *domain.InsufficientBudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, int64(5_000_000), budgetErr.Result.Ceiling)
	assert.Equal(t, int64(5_000_000), budgetErr.Result.Available)
	assert.Equal(t, int64(6_000_000), budgetErr.Result.Requested)
	assert.False(t, budgetErr.Result.IsValid)
}

func TestValidateCountsRealizationAndCommitments(t *testing.T) {
	svc, db, node := newTestService(t, false)
	activityID := node.Generate()
	seedAllocation(t, db, node, activityID, "5.2.2.01.01", 10_000_000)

	require.NoError(t, db.Create(&domain.PaymentInstruction{
		ID:          node.Generate(),
		ActivityID:  activityID,
		AccountCode: "5.2.2.01.01",
		FiscalYear:  2025,
		Amount:      3_000_000,
		Status:      domain.StatusDisbursed,
	}).Error)
	require.NoError(t, db.Create(&voucherdomain.PaymentVoucher{
		ID:             node.Generate(),
		DocumentNumber: "0001/5.2.2.01.01/03/RSUD-DS/2025",
		SequenceNumber: 1,
		FiscalYear:     2025,
		Month:          3,
		ActivityID:     activityID,
		ProgramID:      node.Generate(),
		AccountCode:    "5.2.2.01.01",
		PayeeName:      "CV Sumber Makmur",
		GrossAmount:    2_000_000,
		Status:         voucherdomain.StatusFinal,
		CreatedBy:      "bendahara-1",
	}).Error)

	result, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      activityID,
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 5_000_000,
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(3_000_000), result.Realization)
	assert.Equal(t, int64(2_000_000), result.Commitments)
	assert.Equal(t, int64(5_000_000), result.Available)

	_, err = svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      activityID,
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 5_000_001,
	})
	var budgetErr *domain.InsufficientBudgetError
	assert.ErrorAs(t, err, &budgetErr)
}

func TestValidateExcludesSelfFromCommitments(t *testing.T) {
	svc, db, node := newTestService(t, false)
	activityID := node.Generate()
	voucherID := node.Generate()
	seedAllocation(t, db, node, activityID, "5.2.2.01.01", 5_000_000)

	require.NoError(t, db.Create(&voucherdomain.PaymentVoucher{
		ID:             voucherID,
		DocumentNumber: "0001/5.2.2.01.01/03/RSUD-DS/2025",
		SequenceNumber: 1,
		FiscalYear:     2025,
		Month:          3,
		ActivityID:     activityID,
		ProgramID:      node.Generate(),
		AccountCode:    "5.2.2.01.01",
		PayeeName:      "CV Sumber Makmur",
		GrossAmount:    4_000_000,
		Status:         voucherdomain.StatusFinal,
		CreatedBy:      "bendahara-1",
	}).Error)

	// Counting itself would leave no room to re-validate the same amount.
	result, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:       activityID,
		AccountCode:      "5.2.2.01.01",
		FiscalYear:       2025,
		Month:            3,
		RequestedAmount:  4_000_000,
		ExcludeVoucherID: voucherID,
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(0), result.Commitments)
}

func TestValidateMonthlyLimit(t *testing.T) {
	svc, db, node := newTestService(t, false)
	activityID := node.Generate()
	seedAllocation(t, db, node, activityID, "5.2.2.01.01", 10_000_000)

	require.NoError(t, db.Create(&domain.CashPlan{
		ID:         node.Generate(),
		ActivityID: activityID,
		FiscalYear: 2025,
		Month:      3,
		Amount:     1_000_000,
		Status:     domain.StatusApproved,
	}).Error)

	_, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      activityID,
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 2_000_000,
	})
	var budgetErr *domain.InsufficientBudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, int64(1_000_000), budgetErr.Result.MonthlyLimit)
	assert.Equal(t, int64(1_000_000), budgetErr.Result.MonthlyAvailable)

	// Another month with no cash plan skips the monthly check entirely.
	result, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      activityID,
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           4,
		RequestedAmount: 2_000_000,
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(0), result.MonthlyLimit)
}

func TestValidateDegradesOpenOnSourceFailure(t *testing.T) {
	svc, _, node := newTestService(t, false)
	// A fresh connection without the budget schema makes every sum fail.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	svc.db = db

	result, err := svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      node.Generate(),
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 1_000_000,
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(0), result.Ceiling)
	assert.NotEmpty(t, result.Message)
}

func TestValidateFailClosed(t *testing.T) {
	svc, _, node := newTestService(t, true)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	svc.db = db

	_, err = svc.Validate(context.Background(), domain.ValidateRequest{
		ActivityID:      node.Generate(),
		AccountCode:     "5.2.2.01.01",
		FiscalYear:      2025,
		Month:           3,
		RequestedAmount: 1_000_000,
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestValidateRejectsMalformedRequests(t *testing.T) {
	svc, _, node := newTestService(t, false)
	ctx := context.Background()
	activityID := node.Generate()

	_, err := svc.Validate(ctx, domain.ValidateRequest{
		AccountCode: "5.2.2", FiscalYear: 2025, Month: 3, RequestedAmount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidActivity)

	_, err = svc.Validate(ctx, domain.ValidateRequest{
		ActivityID: activityID, FiscalYear: 2025, Month: 3, RequestedAmount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccountCode)

	_, err = svc.Validate(ctx, domain.ValidateRequest{
		ActivityID: activityID, AccountCode: "5.2.2", FiscalYear: 2025, Month: 13, RequestedAmount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)

	_, err = svc.Validate(ctx, domain.ValidateRequest{
		ActivityID: activityID, AccountCode: "5.2.2", FiscalYear: 2025, Month: 3, RequestedAmount: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestLockBucketIdempotent(t *testing.T) {
	svc, db, node := newTestService(t, false)
	activityID := node.Generate()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.LockBucket(context.Background(), tx, activityID, "5.2.2.01.01", 2025); err != nil {
			return err
		}
		return svc.LockBucket(context.Background(), tx, activityID, "5.2.2.01.01", 2025)
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.BudgetLock{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
