package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository increments and returns the counter for one bucket in a single
// atomic statement.
type Repository interface {
	NextValue(ctx context.Context, tx *gorm.DB, req NextRequest) (int64, error)
}
