package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/rsudds/bludpay/internal/audit/domain"
	"github.com/rsudds/bludpay/internal/audit/repository"
	"github.com/rsudds/bludpay/internal/clock"
	"github.com/rsudds/bludpay/internal/reqcontext"
	"github.com/rsudds/bludpay/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: fake,
		repo:  repository.Provide(),
	}
	return svc, fake, node
}

func TestAppendRecordsActorAndRequestMetadata(t *testing.T) {
	svc, _, node := newTestService(t)
	voucherID := node.Generate()

	ctx := reqcontext.WithActor(context.Background(), reqcontext.Actor{UserID: "bendahara-1"})
	ctx = reqcontext.WithRequestID(ctx, "req-123")
	ctx = reqcontext.WithIPAddress(ctx, "10.0.0.7")
	ctx = reqcontext.WithUserAgent(ctx, "curl/8.0")

	draft := "DRAFT"
	require.NoError(t, svc.Append(ctx, nil, auditdomain.Entry{
		VoucherID: voucherID,
		Action:    auditdomain.ActionCreated,
		NewStatus: &draft,
		Metadata:  map[string]any{"document_number": "0001/5.2.2.01.01/03/RSUD-DS/2025"},
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListRequest{VoucherID: voucherID})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, auditdomain.ActionCreated, entry.Action)
	assert.Nil(t, entry.OldStatus)
	require.NotNil(t, entry.NewStatus)
	assert.Equal(t, "DRAFT", *entry.NewStatus)
	assert.Equal(t, "bendahara-1", entry.PerformedBy)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-123", *entry.RequestID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.7", *entry.IPAddress)
	assert.Equal(t, "0001/5.2.2.01.01/03/RSUD-DS/2025", entry.Metadata["document_number"])
}

func TestAppendDefaultsToSystemActor(t *testing.T) {
	svc, _, node := newTestService(t)
	voucherID := node.Generate()

	require.NoError(t, svc.Append(context.Background(), nil, auditdomain.Entry{
		VoucherID: voucherID,
		Action:    auditdomain.ActionDeleted,
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListRequest{VoucherID: voucherID})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "system", resp.AuditLogs[0].PerformedBy)
}

func TestAppendValidation(t *testing.T) {
	svc, _, node := newTestService(t)

	err := svc.Append(context.Background(), nil, auditdomain.Entry{
		VoucherID: node.Generate(),
		Action:    auditdomain.Action("approved"),
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)

	err = svc.Append(context.Background(), nil, auditdomain.Entry{
		Action: auditdomain.ActionCreated,
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidVoucherID)
}

func TestListOrdersChronologicallyAndPaginates(t *testing.T) {
	svc, fake, node := newTestService(t)
	voucherID := node.Generate()
	ctx := context.Background()

	actions := []auditdomain.Action{
		auditdomain.ActionCreated,
		auditdomain.ActionUpdated,
		auditdomain.ActionUpdated,
		auditdomain.ActionDeleted,
	}
	for _, action := range actions {
		require.NoError(t, svc.Append(ctx, nil, auditdomain.Entry{
			VoucherID: voucherID,
			Action:    action,
		}))
		fake.Advance(time.Minute)
	}

	resp, err := svc.List(ctx, auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 3},
		VoucherID:  voucherID,
	})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 3)
	assert.True(t, resp.HasMore)
	assert.Equal(t, auditdomain.ActionCreated, resp.AuditLogs[0].Action)

	next, err := svc.List(ctx, auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: resp.NextPageToken},
		VoucherID:  voucherID,
	})
	require.NoError(t, err)
	require.Len(t, next.AuditLogs, 1)
	assert.Equal(t, auditdomain.ActionDeleted, next.AuditLogs[0].Action)
	assert.False(t, next.HasMore)
}

func TestListRejectsMalformedPageToken(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.List(context.Background(), auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-cursor"},
		VoucherID:  node.Generate(),
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
