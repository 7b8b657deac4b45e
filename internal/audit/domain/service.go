package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry describes one mutation to record.
type Entry struct {
	VoucherID snowflake.ID
	Action    Action
	OldStatus *string
	NewStatus *string
	Metadata  map[string]any
}

type ListRequest struct {
	pagination.Pagination
	VoucherID snowflake.ID
	Action    string
}

type ListResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records and lists audit entries. Append runs on the caller's
// transaction handle so the history commits atomically with the mutation.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidVoucherID = errors.New("invalid_voucher_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
