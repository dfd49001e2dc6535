// Package inventory manages counting sessions and the lines inside them.
package inventory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/session"
	"github.com/heartmarshall/barcount-backend/internal/config"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/observe"
	"github.com/heartmarshall/barcount-backend/internal/service/voice"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type sessionRepo interface {
	GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error)
	List(ctx context.Context, tenantID uuid.UUID, f session.ListFilter) ([]*domain.InventorySession, int, error)
	Create(ctx context.Context, s *domain.InventorySession) (*domain.InventorySession, error)
	Update(ctx context.Context, s *domain.InventorySession) (*domain.InventorySession, error)
	Delete(ctx context.Context, tenantID, sessionID uuid.UUID, version int) error
}

type tenantProductRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantProduct, error)
}

type provisionalRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProvisionalEntry, error)
	Create(ctx context.Context, e domain.ProvisionalEntry) (*domain.ProvisionalEntry, error)
}

type auditRepo interface {
	Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}

type transcriptParser interface {
	Parse(ctx context.Context, input voice.ParseInput) (domain.ParseOutcome, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the session lifecycle and item merging.
type Service struct {
	log         *slog.Logger
	sessions    sessionRepo
	products    tenantProductRepo
	provisional provisionalRepo
	audit       auditRepo
	parser      transcriptParser
	tx          txManager
	metrics     *observe.Metrics
	cfg         config.InventoryConfig
}

// Deps groups the collaborators of Service.
type Deps struct {
	Sessions    sessionRepo
	Products    tenantProductRepo
	Provisional provisionalRepo
	Audit       auditRepo
	Parser      transcriptParser
	Tx          txManager
	Metrics     *observe.Metrics
}

// NewService creates a new inventory Service.
func NewService(logger *slog.Logger, deps Deps, cfg config.InventoryConfig) *Service {
	return &Service{
		log:         logger.With("service", "inventory"),
		sessions:    deps.Sessions,
		products:    deps.Products,
		provisional: deps.Provisional,
		audit:       deps.Audit,
		parser:      deps.Parser,
		tx:          deps.Tx,
		metrics:     deps.Metrics,
		cfg:         cfg,
	}
}
