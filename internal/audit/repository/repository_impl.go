package repository

import (
	"context"
	"strings"

	"github.com/rsudds/bludpay/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})

	if filter.VoucherID != 0 {
		stmt = stmt.Where("voucher_id = ?", filter.VoucherID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where(
			"((performed_at > ?) OR (performed_at = ? AND id > ?))",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var entries []*domain.AuditLog
	err := stmt.Order("performed_at ASC, id ASC").Limit(limit + 1).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
