package coa

import (
	"context"
	"strings"

	"github.com/rsudds/bludpay/internal/coa/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) LeafName(ctx context.Context, db *gorm.DB, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}

	var name string
	err := db.WithContext(ctx).
		Raw(`SELECT name FROM accounts WHERE code = ? AND is_active = ? AND is_header = ? LIMIT 1`,
			code, true, false).
		Scan(&name).Error
	if err != nil {
		return "", err
	}
	return name, nil
}

func (r *repository) Search(ctx context.Context, prefix string, limit int) ([]domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Raw(`SELECT code, name, is_header, is_active
		     FROM accounts
		     WHERE code LIKE ? AND is_active = ? AND is_header = ?
		     ORDER BY code
		     LIMIT ?`,
			strings.TrimSpace(prefix)+"%", true, false, limit).
		Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
