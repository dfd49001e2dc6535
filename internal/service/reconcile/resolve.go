package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/provisional"
	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/pkg/ctxutil"
)

const maxListLimit = 200

// Result reports what ResolveProvisional changed.
type Result struct {
	RewrittenCount int  `json:"rewrittenCount"`
	AuditUpdated   bool `json:"auditUpdated"`
}

// ResolveProvisional points provisionalID at the tenant product realID and
// rewrites every session line that referenced the placeholder, finalized
// sessions included. Everything happens in one transaction.
//
// An unknown id, or an entry already resolved to realID, is a no-op with a
// zero Result. An entry resolved to another product yields ErrConflict.
func (s *Service) ResolveProvisional(ctx context.Context, provisionalID, realID uuid.UUID) (Result, error) {
	if provisionalID == uuid.Nil || realID == uuid.Nil {
		return Result{}, domain.NewValidationError("id", "required")
	}

	var result Result
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.provisional.GetForUpdate(txCtx, provisionalID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("lock provisional: %w", err)
		}

		if entry.IsResolved() {
			if *entry.ResolvedTo == realID {
				return nil
			}
			return fmt.Errorf("provisional %s already resolved to %s: %w", entry.ID, *entry.ResolvedTo, domain.ErrConflict)
		}

		product, err := s.products.GetByID(txCtx, realID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product.TenantID != entry.TenantID {
			return fmt.Errorf("product %s in tenant %s: %w", realID, entry.TenantID, domain.ErrNotFound)
		}

		from := domain.ProvisionalRef(entry.ID)
		to := domain.RealRef(product.ID)

		sessions, err := s.sessions.ListReferencingForUpdate(txCtx, from)
		if err != nil {
			return fmt.Errorf("lock sessions: %w", err)
		}

		rewritten := 0
		for _, sess := range sessions {
			items, n := domain.RewriteRef(sess.Items, from, to)
			if n == 0 {
				continue
			}
			if err := s.sessions.RewriteItems(txCtx, sess.ID, items); err != nil {
				return fmt.Errorf("rewrite session %s: %w", sess.ID, err)
			}
			rewritten++
		}

		now := time.Now().UTC()
		if err := s.provisional.MarkResolved(txCtx, entry.ID, product.ID, now); err != nil {
			return fmt.Errorf("mark resolved: %w", err)
		}

		actor, ok := ctxutil.UserIDFromCtx(ctx)
		if !ok {
			actor = entry.TenantID
		}
		_, err = s.audit.Create(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			UserID:     actor,
			EntityType: domain.EntityTypeProvisional,
			EntityID:   &entry.ID,
			Action:     domain.AuditActionResolve,
			Changes: map[string]any{
				"spoken_name":        entry.SpokenName,
				"resolved_to":        product.ID.String(),
				"sessions_rewritten": rewritten,
			},
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("audit resolve: %w", err)
		}

		result = Result{RewrittenCount: rewritten, AuditUpdated: true}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.AuditUpdated {
		s.metrics.RecordReconcile(ctx, result.RewrittenCount)
		s.log.InfoContext(ctx, "provisional product resolved",
			slog.String("provisional_id", provisionalID.String()),
			slog.String("product_id", realID.String()),
			slog.Int("sessions_rewritten", result.RewrittenCount),
		)
	}

	return result, nil
}

// ListInput filters unresolved entries. A nil TenantID lists every tenant.
type ListInput struct {
	TenantID *uuid.UUID
	Limit    int
	Offset   int
}

// ListUnresolved returns unresolved entries, oldest first, and their total.
func (s *Service) ListUnresolved(ctx context.Context, input ListInput) ([]domain.ProvisionalEntry, int, error) {
	if input.Limit < 0 || input.Limit > maxListLimit {
		return nil, 0, domain.NewValidationError("limit", fmt.Sprintf("must be between 0 and %d", maxListLimit))
	}
	if input.Offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must be non-negative")
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.pageSize
	}

	entries, total, err := s.provisional.ListUnresolved(ctx, provisional.ListFilter{
		TenantID: input.TenantID,
		Limit:    limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list unresolved: %w", err)
	}
	return entries, total, nil
}
