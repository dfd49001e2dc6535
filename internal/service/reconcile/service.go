// Package reconcile maps provisional products to real catalog products and
// rewrites every session that counted them.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/provisional"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/observe"
)

type provisionalRepo interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProvisionalEntry, error)
	MarkResolved(ctx context.Context, id, resolvedTo uuid.UUID, at time.Time) error
	ListUnresolved(ctx context.Context, f provisional.ListFilter) ([]domain.ProvisionalEntry, int, error)
}

type tenantProductRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantProduct, error)
}

type sessionRepo interface {
	ListReferencingForUpdate(ctx context.Context, ref domain.ProductRef) ([]*domain.InventorySession, error)
	RewriteItems(ctx context.Context, sessionID uuid.UUID, items []domain.SessionItem) error
}

type auditRepo interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service resolves provisional entries.
type Service struct {
	log         *slog.Logger
	provisional provisionalRepo
	products    tenantProductRepo
	sessions    sessionRepo
	audit       auditRepo
	tx          txManager
	metrics     *observe.Metrics
	pageSize    int
}

// NewService creates a reconcile Service. metrics may be nil.
func NewService(
	logger *slog.Logger,
	provisional provisionalRepo,
	products tenantProductRepo,
	sessions sessionRepo,
	audit auditRepo,
	tx txManager,
	metrics *observe.Metrics,
	defaultPageSize int,
) *Service {
	return &Service{
		log:         logger.With("service", "reconcile"),
		provisional: provisional,
		products:    products,
		sessions:    sessions,
		audit:       audit,
		tx:          tx,
		metrics:     metrics,
		pageSize:    defaultPageSize,
	}
}
