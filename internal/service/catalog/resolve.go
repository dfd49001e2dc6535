package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/matching"
)

// Resolve binds input.SpokenName to a tenant product.
//
// The matcher runs once. A confident top candidate is reused from the tenant
// catalog or cloned into it. Candidates that are not confident yield an
// Ambiguous resolution with their names as suggestions. No candidate at all
// creates a provisional entry.
func (s *Resolver) Resolve(ctx context.Context, input ResolveInput) (Resolution, error) {
	if err := input.Validate(); err != nil {
		return Resolution{}, err
	}
	name := strings.TrimSpace(input.SpokenName)

	candidates, err := s.matcher.Match(ctx, name)
	if err != nil {
		return Resolution{}, fmt.Errorf("match %q: %w", name, err)
	}

	if len(candidates) == 0 {
		return s.createProvisional(ctx, input.TenantID, name, input.SessionID)
	}

	top := candidates[0]
	if !s.confident(candidates) {
		s.log.DebugContext(ctx, "no confident match",
			slog.String("spoken_name", name),
			slog.Float64("best_score", top.Score),
		)
		return Resolution{
			Kind:        domain.ResolutionAmbiguous,
			Candidates:  candidates,
			Suggestions: candidateNames(candidates),
		}, nil
	}

	product, kind, err := s.useOrClone(ctx, input.TenantID, &top.Product)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{Kind: kind, Product: product, Candidates: candidates}, nil
}

// clearLead is how far ahead of the runner-up a top candidate beyond
// MaxMatchDistance must be to still count as confident.
const clearLead = 0.2

// confident reports whether the top candidate may be bound without asking.
// It must be within MaxMatchDistance, or within twice that distance while
// being the only candidate or leading the runner-up by clearLead.
func (s *Resolver) confident(candidates []matching.Candidate) bool {
	top := candidates[0].Score
	if top <= s.cfg.MaxMatchDistance {
		return true
	}
	if top > 2*s.cfg.MaxMatchDistance {
		return false
	}
	return len(candidates) == 1 || candidates[1].Score-top >= clearLead
}

// useOrClone returns the tenant's copy of ref, cloning it on first use.
func (s *Resolver) useOrClone(ctx context.Context, tenantID uuid.UUID, ref *domain.RefProduct) (*domain.TenantProduct, domain.ResolutionKind, error) {
	existing, err := s.products.GetByRef(ctx, tenantID, ref.ID)
	if err == nil {
		return existing, domain.ResolutionMatched, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("get tenant product: %w", err)
	}

	var created *domain.TenantProduct
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		clone := domain.CloneForTenant(ref, tenantID, time.Now().UTC())

		var createErr error
		created, createErr = s.products.Create(txCtx, clone)
		if createErr != nil {
			return fmt.Errorf("create tenant product: %w", createErr)
		}

		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			UserID:     tenantID,
			EntityType: domain.EntityTypeTenantProduct,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"ref_product_id": ref.ID.String(), "source": "clone"},
			CreatedAt:  clone.CreatedAt,
		})
		if auditErr != nil {
			return fmt.Errorf("audit create: %w", auditErr)
		}

		return nil
	})

	if txErr != nil {
		// A concurrent request cloned the same product first.
		if errors.Is(txErr, domain.ErrAlreadyExists) {
			existing, err := s.products.GetByRef(ctx, tenantID, ref.ID)
			if err != nil {
				return nil, "", fmt.Errorf("re-read tenant product: %w", err)
			}
			return existing, domain.ResolutionMatched, nil
		}
		return nil, "", txErr
	}

	s.log.InfoContext(ctx, "product cloned into tenant catalog",
		slog.String("tenant_id", tenantID.String()),
		slog.String("ref_product_id", ref.ID.String()),
		slog.String("product_id", created.ID.String()),
	)

	return created, domain.ResolutionCloned, nil
}

// createProvisional stores a placeholder for an unrecognized name.
func (s *Resolver) createProvisional(ctx context.Context, tenantID uuid.UUID, name string, sessionID *uuid.UUID) (Resolution, error) {
	suggestions, err := s.matcher.Suggest(ctx, name, s.cfg.MaxSuggestions)
	if err != nil {
		return Resolution{}, fmt.Errorf("suggest %q: %w", name, err)
	}

	var created *domain.ProvisionalEntry
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry := domain.ProvisionalEntry{
			ID:         uuid.New(),
			TenantID:   tenantID,
			SpokenName: name,
			SessionID:  sessionID,
			CreatedAt:  time.Now().UTC(),
		}

		var createErr error
		created, createErr = s.provisional.Create(txCtx, entry)
		if createErr != nil {
			return fmt.Errorf("create provisional: %w", createErr)
		}

		changes := map[string]any{"spoken_name": name}
		if sessionID != nil {
			changes["session_id"] = sessionID.String()
		}
		_, auditErr := s.audit.Create(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			UserID:     tenantID,
			EntityType: domain.EntityTypeProvisional,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes:    changes,
			CreatedAt:  entry.CreatedAt,
		})
		if auditErr != nil {
			return fmt.Errorf("audit create: %w", auditErr)
		}

		return nil
	})
	if txErr != nil {
		return Resolution{}, txErr
	}

	s.log.InfoContext(ctx, "provisional product created",
		slog.String("tenant_id", tenantID.String()),
		slog.String("provisional_id", created.ID.String()),
		slog.String("spoken_name", name),
	)

	return Resolution{
		Kind:        domain.ResolutionProvisional,
		Provisional: created,
		Candidates:  []matching.Candidate{},
		Suggestions: suggestions,
	}, nil
}

func candidateNames(candidates []matching.Candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := c.Product.DisplayName()
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}
