// Package catalog binds spoken product names to tenant catalog products.
package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/config"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/matching"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type candidateMatcher interface {
	Match(ctx context.Context, name string) ([]matching.Candidate, error)
	Suggest(ctx context.Context, name string, limit int) ([]string, error)
}

type tenantProductRepo interface {
	GetByRef(ctx context.Context, tenantID, refProductID uuid.UUID) (*domain.TenantProduct, error)
	Create(ctx context.Context, p *domain.TenantProduct) (*domain.TenantProduct, error)
}

type provisionalRepo interface {
	Create(ctx context.Context, e domain.ProvisionalEntry) (*domain.ProvisionalEntry, error)
}

type auditRepo interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Resolver turns matcher candidates into an authoritative product reference.
type Resolver struct {
	log         *slog.Logger
	matcher     candidateMatcher
	products    tenantProductRepo
	provisional provisionalRepo
	audit       auditRepo
	tx          txManager
	cfg         config.MatchingConfig
}

// NewResolver creates a new catalog Resolver.
func NewResolver(
	logger *slog.Logger,
	matcher candidateMatcher,
	products tenantProductRepo,
	provisional provisionalRepo,
	audit auditRepo,
	tx txManager,
	cfg config.MatchingConfig,
) *Resolver {
	return &Resolver{
		log:         logger.With("service", "catalog"),
		matcher:     matcher,
		products:    products,
		provisional: provisional,
		audit:       audit,
		tx:          tx,
		cfg:         cfg,
	}
}
