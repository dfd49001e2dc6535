package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/session"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

const periodTagLayout = "2006-01"

// ---------------------------------------------------------------------------
// 1. Start
// ---------------------------------------------------------------------------

// Start opens an ACTIVE session. Initial items without a product id get a
// provisional entry each, created together with the session.
func (s *Service) Start(ctx context.Context, input StartInput) (*domain.InventorySession, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	for _, item := range input.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.checkRealProduct(ctx, input.TenantID, *item.ProductID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	periodTag := input.PeriodTag
	if periodTag == "" {
		periodTag = now.Format(periodTagLayout)
	}

	sess := &domain.InventorySession{
		ID:        uuid.New(),
		TenantID:  input.TenantID,
		Status:    domain.SessionStatusActive,
		PeriodTag: periodTag,
		Label:     trimPtr(input.Label),
		Location:  trimPtr(input.Location),
		Notes:     input.Notes,
		StartedAt: now,
	}

	var pending []domain.ProvisionalEntry
	for _, item := range input.Items {
		line := domain.SessionItem{
			QuantityFull:    item.QuantityFull,
			QuantityPartial: item.QuantityPartial,
			Name:            trimPtr(item.Name),
			Category:        item.Category,
		}
		if item.ProductID != nil {
			line.Ref = domain.RealRef(*item.ProductID)
		} else {
			entry := domain.ProvisionalEntry{
				ID:         uuid.New(),
				TenantID:   input.TenantID,
				SpokenName: provisionalName(item.Name),
				SessionID:  &sess.ID,
				CreatedAt:  now,
			}
			pending = append(pending, entry)
			line.Ref = domain.ProvisionalRef(entry.ID)
		}
		sess.Items = append(sess.Items, line)
	}

	var created *domain.InventorySession
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.sessions.Create(txCtx, sess)
		if createErr != nil {
			return fmt.Errorf("create session: %w", createErr)
		}

		for _, entry := range pending {
			if _, err := s.provisional.Create(txCtx, entry); err != nil {
				return fmt.Errorf("create provisional: %w", err)
			}
		}

		return s.writeAudit(txCtx, created, domain.AuditActionCreate, map[string]any{
			"period_tag":  created.PeriodTag,
			"items":       len(created.Items),
			"provisional": len(pending),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "session started",
		slog.String("tenant_id", created.TenantID.String()),
		slog.String("session_id", created.ID.String()),
		slog.Int("items", len(created.Items)),
	)

	return created, nil
}

// ---------------------------------------------------------------------------
// 2. Reads
// ---------------------------------------------------------------------------

// Get returns a session owned by tenantID.
func (s *Service) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	sess, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns a page of the tenant's sessions, newest first, and the total
// number matching the filter.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, input ListInput) ([]*domain.InventorySession, int, error) {
	if err := input.Validate(); err != nil {
		return nil, 0, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.cfg.DefaultPageSize
	}

	sessions, total, err := s.sessions.List(ctx, tenantID, session.ListFilter{
		Status:    input.Status,
		PeriodTag: input.PeriodTag,
		Limit:     limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, total, nil
}

// ---------------------------------------------------------------------------
// 3. UpdateDetails
// ---------------------------------------------------------------------------

// UpdateDetails changes label, location and notes of a non-finalized session.
func (s *Service) UpdateDetails(ctx context.Context, tenantID, sessionID uuid.UUID, input UpdateDetailsInput) (*domain.InventorySession, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenantID, sessionID, func(sess *domain.InventorySession) (map[string]any, error) {
		if input.Label != nil {
			sess.Label = trimPtr(input.Label)
		}
		if input.Location != nil {
			sess.Location = trimPtr(input.Location)
		}
		if input.Notes != nil {
			sess.Notes = input.Notes
		}
		return nil, nil
	})
}

// ---------------------------------------------------------------------------
// 4. Lifecycle transitions
// ---------------------------------------------------------------------------

// Pause moves an ACTIVE session to PAUSED.
func (s *Service) Pause(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	return s.transition(ctx, tenantID, sessionID, domain.SessionActionPause)
}

// Resume moves a PAUSED session back to ACTIVE.
func (s *Service) Resume(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	return s.transition(ctx, tenantID, sessionID, domain.SessionActionResume)
}

// Finalize closes the session for good and stamps FinalizedAt.
func (s *Service) Finalize(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	sess, err := s.transition(ctx, tenantID, sessionID, domain.SessionActionFinalize)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "session finalized",
		slog.String("tenant_id", tenantID.String()),
		slog.String("session_id", sessionID.String()),
		slog.Int("items", len(sess.Items)),
	)
	return sess, nil
}

func (s *Service) transition(ctx context.Context, tenantID, sessionID uuid.UUID, action domain.SessionAction) (*domain.InventorySession, error) {
	return s.mutate(ctx, tenantID, sessionID, func(sess *domain.InventorySession) (map[string]any, error) {
		next, err := sess.Status.Transition(action)
		if err != nil {
			return nil, fmt.Errorf("%s session in status %s: %w", strings.ToLower(string(action)), sess.Status, err)
		}

		changes := map[string]any{
			"status": map[string]any{"old": sess.Status.String(), "new": next.String()},
		}
		sess.Status = next
		if next == domain.SessionStatusFinalized {
			now := time.Now().UTC()
			sess.FinalizedAt = &now
		}
		return changes, nil
	})
}

// ---------------------------------------------------------------------------
// 5. Delete
// ---------------------------------------------------------------------------

// Delete removes a non-finalized session.
func (s *Service) Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	_, err := s.withRetry(ctx, tenantID, sessionID, func(sess *domain.InventorySession) (*domain.InventorySession, error) {
		return sess, s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.sessions.Delete(txCtx, tenantID, sessionID, sess.Version); err != nil {
				return err
			}
			return s.writeAudit(txCtx, sess, domain.AuditActionDelete, map[string]any{
				"items": len(sess.Items),
			})
		})
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "session deleted",
		slog.String("tenant_id", tenantID.String()),
		slog.String("session_id", sessionID.String()),
	)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mutate applies fn to the current session and persists it under the
// version guard, re-reading and retrying on a lost race. A non-nil change
// map from fn is written to the audit log in the same transaction.
func (s *Service) mutate(
	ctx context.Context,
	tenantID, sessionID uuid.UUID,
	fn func(sess *domain.InventorySession) (map[string]any, error),
) (*domain.InventorySession, error) {
	return s.withRetry(ctx, tenantID, sessionID, func(sess *domain.InventorySession) (*domain.InventorySession, error) {
		changes, err := fn(sess)
		if err != nil {
			return nil, err
		}

		var updated *domain.InventorySession
		txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var updateErr error
			updated, updateErr = s.sessions.Update(txCtx, sess)
			if updateErr != nil {
				return updateErr
			}
			if changes == nil {
				return nil
			}
			return s.writeAudit(txCtx, updated, domain.AuditActionUpdate, changes)
		})
		return updated, txErr
	})
}

// withRetry loads the session and runs op on it. When op reports
// ErrConcurrentUpdate the session is re-read, which surfaces ErrNotFound or
// ErrSessionFinalized if that is why the write lost, and op runs again up to
// MergeMaxRetries more times.
func (s *Service) withRetry(
	ctx context.Context,
	tenantID, sessionID uuid.UUID,
	op func(sess *domain.InventorySession) (*domain.InventorySession, error),
) (*domain.InventorySession, error) {
	for attempt := 0; ; attempt++ {
		sess, err := s.sessions.GetByID(ctx, tenantID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		if sess.IsFinalized() {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionFinalized)
		}

		result, err := op(sess)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return nil, err
		}

		s.metrics.RecordMergeConflict(ctx)
		if attempt >= s.cfg.MergeMaxRetries {
			s.log.WarnContext(ctx, "session write kept losing the version race",
				slog.String("session_id", sessionID.String()),
				slog.Int("attempts", attempt+1),
			)
			return nil, err
		}
		s.log.DebugContext(ctx, "session version conflict, retrying",
			slog.String("session_id", sessionID.String()),
			slog.Int("attempt", attempt+1),
		)
	}
}

func (s *Service) writeAudit(ctx context.Context, sess *domain.InventorySession, action domain.AuditAction, changes map[string]any) error {
	id := sess.ID
	_, err := s.audit.Create(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		UserID:     sess.TenantID,
		EntityType: domain.EntityTypeSession,
		EntityID:   &id,
		Action:     action,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", strings.ToLower(action.String()), err)
	}
	return nil
}

// checkRealProduct reports ErrNotFound unless productID is in the tenant's catalog.
func (s *Service) checkRealProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p.TenantID != tenantID {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// tenantProvisional loads a provisional entry, reporting ErrNotFound unless it
// belongs to tenantID.
func (s *Service) tenantProvisional(ctx context.Context, tenantID, entryID uuid.UUID) (*domain.ProvisionalEntry, error) {
	e, err := s.provisional.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get provisional: %w", err)
	}
	if e.TenantID != tenantID {
		return nil, fmt.Errorf("provisional %s: %w", entryID, domain.ErrNotFound)
	}
	return e, nil
}

func provisionalName(name *string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return "unknown"
	}
	return strings.TrimSpace(*name)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
