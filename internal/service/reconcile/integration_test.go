package reconcile_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgres "github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/provisional"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/session"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/tenantproduct"
	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/reconcile"
)

type failingAudit struct{}

func (failingAudit) Create(_ context.Context, _ domain.AuditRecord) (domain.AuditRecord, error) {
	return domain.AuditRecord{}, errors.New("audit store unavailable")
}

type auditCreator interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

func newService(pool *pgxpool.Pool, auditRepo auditCreator) *reconcile.Service {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return reconcile.NewService(
		logger,
		provisional.New(pool),
		tenantproduct.New(pool),
		session.New(pool),
		auditRepo,
		postgres.NewTxManager(pool),
		nil,
		20,
	)
}

func TestResolveProvisional_Integration(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	product := testhelper.SeedTenantProduct(t, pool, tenantID, nil)
	entry := testhelper.SeedProvisional(t, pool, tenantID, "house gin", nil)
	from := domain.ProvisionalRef(entry.ID)
	to := domain.RealRef(product.ID)

	active := testhelper.SeedSession(t, pool, tenantID, domain.SessionStatusActive, []domain.SessionItem{
		{Ref: from, QuantityFull: 2, QuantityPartial: 0.5},
	})
	finalized := testhelper.SeedSession(t, pool, tenantID, domain.SessionStatusFinalized, []domain.SessionItem{
		{Ref: to, QuantityFull: 1},
		{Ref: from, QuantityPartial: 0.25},
	})
	untouched := testhelper.SeedSession(t, pool, tenantID, domain.SessionStatusActive, []domain.SessionItem{
		{Ref: domain.RealRef(uuid.New()), QuantityFull: 4},
	})

	svc := newService(pool, audit.New(pool))

	res, err := svc.ResolveProvisional(ctx, entry.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{RewrittenCount: 2, AuditUpdated: true}, res)

	sessions := session.New(pool)

	got, err := sessions.GetByID(ctx, tenantID, active.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, to, got.Items[0].Ref)
	assert.Equal(t, 2, got.Items[0].QuantityFull)
	assert.Equal(t, 2, got.Version)

	got, err = sessions.GetByID(ctx, tenantID, finalized.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, to, got.Items[0].Ref)
	assert.Equal(t, 1, got.Items[0].QuantityFull)
	assert.InDelta(t, 0.25, got.Items[0].QuantityPartial, 1e-9)
	assert.Equal(t, domain.SessionStatusFinalized, got.Status)

	got, err = sessions.GetByID(ctx, tenantID, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)

	resolved, err := provisional.New(pool).GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedTo)
	assert.Equal(t, product.ID, *resolved.ResolvedTo)
	assert.NotNil(t, resolved.ResolvedAt)

	records, err := audit.New(pool).GetByEntity(ctx, domain.EntityTypeProvisional, entry.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.AuditActionResolve, records[0].Action)

	// A second run finds nothing left to do.
	res, err = svc.ResolveProvisional(ctx, entry.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{}, res)
}

func TestResolveProvisional_Integration_RollsBack(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	product := testhelper.SeedTenantProduct(t, pool, tenantID, nil)
	entry := testhelper.SeedProvisional(t, pool, tenantID, "mystery rum", nil)
	sess := testhelper.SeedSession(t, pool, tenantID, domain.SessionStatusActive, []domain.SessionItem{
		{Ref: domain.ProvisionalRef(entry.ID), QuantityFull: 3},
	})

	svc := newService(pool, failingAudit{})

	_, err := svc.ResolveProvisional(ctx, entry.ID, product.ID)
	require.Error(t, err)

	got, err := session.New(pool).GetByID(ctx, tenantID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvisionalRef(entry.ID), got.Items[0].Ref)
	assert.Equal(t, 1, got.Version)

	still, err := provisional.New(pool).GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, still.ResolvedTo)
}

func TestResolveProvisional_Integration_UnknownID(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)

	svc := newService(pool, audit.New(pool))

	res, err := svc.ResolveProvisional(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, reconcile.Result{}, res)
}
