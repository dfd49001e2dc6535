package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/voice"
)

// ---------------------------------------------------------------------------
// 6. MergeItem
// ---------------------------------------------------------------------------

// MergeItem merges one line into a session: the line with the same ref gets
// its supplied quantities overwritten, otherwise a new line is appended. A
// ref to an already resolved provisional entry is merged as its real product.
func (s *Service) MergeItem(ctx context.Context, tenantID, sessionID uuid.UUID, input ItemInput) (*domain.InventorySession, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.Ref.IsProvisional() {
		entry, err := s.tenantProvisional(ctx, tenantID, input.Ref.ID)
		if err != nil {
			return nil, err
		}
		// A resolved entry is never rescanned, so the line goes straight to
		// the real product.
		if entry.IsResolved() {
			input.Ref = domain.RealRef(*entry.ResolvedTo)
		}
	} else if err := s.checkRealProduct(ctx, tenantID, input.Ref.ID); err != nil {
		return nil, err
	}

	return s.mergeItem(ctx, tenantID, sessionID, input.update())
}

func (s *Service) mergeItem(ctx context.Context, tenantID, sessionID uuid.UUID, update domain.ItemUpdate) (*domain.InventorySession, error) {
	return s.mutate(ctx, tenantID, sessionID, func(sess *domain.InventorySession) (map[string]any, error) {
		merged := domain.MergeItems(sess.Items, update)
		if len(merged) > s.cfg.MaxItems {
			return nil, domain.NewValidationError("items", fmt.Sprintf("session holds at most %d lines", s.cfg.MaxItems))
		}
		sess.Items = merged
		return nil, nil
	})
}

// ---------------------------------------------------------------------------
// 7. AddParsedItemToSession
// ---------------------------------------------------------------------------

// VoiceAddResult is the session after a voice add and the parse outcome that
// drove it. Applied is false when the outcome carried nothing to merge.
type VoiceAddResult struct {
	Session *domain.InventorySession
	Outcome domain.ParseOutcome
	Applied bool
}

// AddParsedItemToSession parses transcript with the session as provisional
// origin and merges the resulting line. Parsing and merging share one
// transaction, so a failed merge leaves no clone or provisional entry behind.
// Outcomes without a quantity or without a product come back with the session
// unchanged.
func (s *Service) AddParsedItemToSession(ctx context.Context, sessionID, tenantID uuid.UUID, transcript string) (*VoiceAddResult, error) {
	sess, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.IsFinalized() {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionFinalized)
	}

	var result *VoiceAddResult
	var update domain.ItemUpdate
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		outcome, err := s.parser.Parse(txCtx, voice.ParseInput{
			Transcript: transcript,
			TenantID:   tenantID,
			SessionID:  &sessionID,
		})
		if err != nil {
			return fmt.Errorf("parse transcript: %w", err)
		}

		var ok bool
		update, ok = updateFromOutcome(outcome)
		if !ok {
			result = &VoiceAddResult{Session: sess, Outcome: outcome}
			return nil
		}

		updated, err := s.mergeItem(txCtx, tenantID, sessionID, update)
		if err != nil {
			return err
		}
		result = &VoiceAddResult{Session: updated, Outcome: outcome, Applied: true}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if result.Applied {
		s.log.InfoContext(ctx, "voice item merged",
			slog.String("session_id", sessionID.String()),
			slog.String("ref", update.Ref.String()),
		)
	}

	return result, nil
}

// updateFromOutcome builds the line for a parse outcome that identifies a
// product, either real or provisional.
func updateFromOutcome(outcome domain.ParseOutcome) (domain.ItemUpdate, bool) {
	switch o := outcome.(type) {
	case domain.ParseMatched:
		name := o.Brand
		if o.Variant != nil && *o.Variant != "" {
			name += " " + *o.Variant
		}
		category := o.Category
		return domain.ItemUpdate{
			Ref:             domain.RealRef(o.ProductID),
			QuantityFull:    &o.Quantities.Full,
			QuantityPartial: &o.Quantities.Partial,
			Name:            &name,
			Category:        &category,
		}, true
	case domain.ParseProvisional:
		if o.ProvisionalID == nil {
			return domain.ItemUpdate{}, false
		}
		name := o.SpokenName
		return domain.ItemUpdate{
			Ref:             domain.ProvisionalRef(*o.ProvisionalID),
			QuantityFull:    &o.Quantities.Full,
			QuantityPartial: &o.Quantities.Partial,
			Name:            &name,
		}, true
	}
	return domain.ItemUpdate{}, false
}
