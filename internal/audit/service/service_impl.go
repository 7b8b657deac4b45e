package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	"github.com/rsudds/bludpay/internal/clock"
	"github.com/rsudds/bludpay/internal/reqcontext"
	"github.com/rsudds/bludpay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Append(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	switch entry.Action {
	case auditdomain.ActionCreated, auditdomain.ActionUpdated, auditdomain.ActionDeleted:
	default:
		return auditdomain.ErrInvalidAction
	}
	if entry.VoucherID == 0 {
		return auditdomain.ErrInvalidVoucherID
	}
	if tx == nil {
		tx = s.db
	}

	payload := map[string]any{}
	for key, value := range entry.Metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	performedBy := "system"
	if actor, ok := reqcontext.ActorFromContext(ctx); ok {
		performedBy = actor.UserID
	}

	row := auditdomain.AuditLog{
		ID:          s.genID.Generate(),
		VoucherID:   entry.VoucherID,
		Action:      entry.Action,
		OldStatus:   entry.OldStatus,
		NewStatus:   entry.NewStatus,
		Metadata:    datatypes.JSONMap(payload),
		PerformedBy: performedBy,
		PerformedAt: s.clock.Now(),
	}
	if requestID := reqcontext.RequestIDFromContext(ctx); requestID != "" {
		row.RequestID = &requestID
	}
	if ipAddress := reqcontext.IPAddressFromContext(ctx); ipAddress != "" {
		row.IPAddress = &ipAddress
	}
	if userAgent := reqcontext.UserAgentFromContext(ctx); userAgent != "" {
		row.UserAgent = &userAgent
	}

	if err := s.repo.Insert(ctx, tx, &row); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", string(entry.Action)),
			zap.String("voucher_id", entry.VoucherID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		performedAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: performedAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		VoucherID: req.VoucherID,
		Action:    req.Action,
		Cursor:    cursor,
		Limit:     int(pageSize),
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.PerformedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := auditdomain.ListResponse{AuditLogs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
