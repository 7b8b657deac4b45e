package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/voucher/domain"
	"github.com/rsudds/bludpay/pkg/db"
	"github.com/rsudds/bludpay/pkg/db/option"
	"github.com/rsudds/bludpay/pkg/db/pagination"
	"github.com/rsudds/bludpay/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db    *gorm.DB
	store repository.Repository[domain.PaymentVoucher]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{
		db:    db,
		store: repository.ProvideStore[domain.PaymentVoucher](db),
	}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, voucher *domain.PaymentVoucher) error {
	if err := tx.WithContext(ctx).Create(voucher).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicateDocumentNumber
		}
		return err
	}
	return nil
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, voucher *domain.PaymentVoucher) error {
	return tx.WithContext(ctx).Save(voucher).Error
}

// FindByID loads one live voucher. With lock set the row is loaded FOR
// UPDATE on dialects that support it; sqlite serializes at the database
// level already.
func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*domain.PaymentVoucher, error) {
	stmt := db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id)
	if lock && db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var voucher domain.PaymentVoucher
	if err := stmt.First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *repo) List(ctx context.Context, req domain.ListRequest, limit int) ([]*domain.PaymentVoucher, error) {
	filter := domain.PaymentVoucher{
		Status:     domain.Status(req.Status),
		FiscalYear: req.FiscalYear,
		Month:      req.Month,
		ActivityID: req.ActivityID,
	}

	opts := []option.QueryOption{
		option.Where("deleted_at IS NULL"),
		option.WithSortBy(option.QuerySortBy{Field: "created_at", Desc: true}),
		option.WithLimit(limit),
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		opts = append(opts, option.Where(
			"((created_at < ?) OR (created_at = ? AND id < ?))",
			createdAt, createdAt, id,
		))
	}

	return r.store.Find(ctx, &filter, opts...)
}

func (r *repo) InsertSignatories(ctx context.Context, tx *gorm.DB, rows []domain.Signatory) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&rows).Error
}

func (r *repo) ReplaceSignatories(ctx context.Context, tx *gorm.DB, voucherID snowflake.ID, rows []domain.Signatory) error {
	if err := tx.WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		Delete(&domain.Signatory{}).Error; err != nil {
		return err
	}
	return r.InsertSignatories(ctx, tx, rows)
}

func (r *repo) Signatories(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]domain.Signatory, error) {
	var rows []domain.Signatory
	err := db.WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		Order("role ASC").
		Find(&rows).Error
	return rows, err
}
