package voice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/service/catalog"
	speech "github.com/heartmarshall/barcount-backend/internal/voice"
)

const maxTranscriptLen = 1000

// ParseInput is one transcript to parse. SessionID marks the session a
// provisional entry originates from.
type ParseInput struct {
	Transcript string
	TenantID   uuid.UUID
	SessionID  *uuid.UUID
}

// Validate checks the input fields.
func (i ParseInput) Validate() error {
	var errs []domain.FieldError
	if i.TenantID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "tenant_id", Message: "required"})
	}
	if len(i.Transcript) > maxTranscriptLen {
		errs = append(errs, domain.FieldError{Field: "transcript", Message: "too long"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ParseTranscript parses transcript for tenantID outside of any session.
func (s *Service) ParseTranscript(ctx context.Context, transcript string, tenantID uuid.UUID) (domain.ParseOutcome, error) {
	return s.Parse(ctx, ParseInput{Transcript: transcript, TenantID: tenantID})
}

// Parse reads the quantity and product name out of the transcript and binds
// the name to a catalog product. Missing quantities and unclear names come
// back as outcomes, not errors.
func (s *Service) Parse(ctx context.Context, input ParseInput) (domain.ParseOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	ext := speech.ExtractQuantities(speech.Normalize(input.Transcript))
	q := ext.Quantities()

	outcome, err := s.resolve(ctx, input, ext, q)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordParse(ctx, outcomeLabel(outcome), time.Since(start))
	s.log.DebugContext(ctx, "transcript parsed",
		slog.String("tenant_id", input.TenantID.String()),
		slog.String("outcome", outcomeLabel(outcome)),
		slog.String("product_name", ext.ProductName),
	)

	return outcome, nil
}

func (s *Service) resolve(ctx context.Context, input ParseInput, ext speech.Extraction, q domain.Quantities) (domain.ParseOutcome, error) {
	if !ext.HasFull && !ext.HasPartial {
		return domain.ParseNoQuantity{ProductName: ext.ProductName, Message: domain.MessageNoQuantity}, nil
	}

	if ext.ProductName == "" {
		return domain.ParseProvisional{
			Quantities:  q,
			Suggestions: []string{},
			Message:     domain.MessageNoProduct,
		}, nil
	}

	res, err := s.resolver.Resolve(ctx, catalog.ResolveInput{
		TenantID:   input.TenantID,
		SpokenName: ext.ProductName,
		SessionID:  input.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	switch res.Kind {
	case domain.ResolutionMatched, domain.ResolutionCloned:
		return domain.ParseMatched{
			ProductID:  res.Product.ID,
			Resolution: res.Kind,
			Quantities: q,
			Brand:      res.Product.Brand,
			Variant:    res.Product.Variant,
			Category:   res.Product.Category,
			Message:    domain.QuantityMessage(q),
		}, nil
	case domain.ResolutionProvisional:
		id := res.Provisional.ID
		return domain.ParseProvisional{
			ProvisionalID: &id,
			SpokenName:    ext.ProductName,
			Quantities:    q,
			Suggestions:   nonNil(res.Suggestions),
			Message:       domain.MessageProvisionalOK,
		}, nil
	default:
		return domain.ParseProvisional{
			SpokenName:  ext.ProductName,
			Quantities:  q,
			Suggestions: nonNil(res.Suggestions),
			Message:     domain.MessageAmbiguous,
		}, nil
	}
}

// outcomeLabel names an outcome for metrics and logs.
func outcomeLabel(o domain.ParseOutcome) string {
	switch v := o.(type) {
	case domain.ParseMatched:
		return v.Resolution.String()
	case domain.ParseProvisional:
		if v.ProvisionalID == nil {
			return domain.ResolutionAmbiguous.String()
		}
		return domain.ResolutionProvisional.String()
	default:
		return "NO_QUANTITY"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
