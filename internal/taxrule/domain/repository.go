package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindEffective lists active rules whose effective range contains date.
	FindEffective(ctx context.Context, date time.Time) ([]TaxRule, error)
	// FindEffectiveTx is FindEffective on the caller's transaction handle.
	FindEffectiveTx(ctx context.Context, tx *gorm.DB, date time.Time) ([]TaxRule, error)
	Create(ctx context.Context, rule *TaxRule) error
	FindByID(ctx context.Context, id snowflake.ID) (*TaxRule, error)
	List(ctx context.Context, req ListRequest) ([]TaxRule, error)
	Update(ctx context.Context, rule *TaxRule) error
}
