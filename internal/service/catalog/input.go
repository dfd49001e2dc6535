package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
	"github.com/heartmarshall/barcount-backend/internal/matching"
)

const maxSpokenNameLen = 200

// ResolveInput names the product to resolve for a tenant. SessionID, when
// set, is recorded as the origin of a provisional entry.
type ResolveInput struct {
	TenantID   uuid.UUID
	SpokenName string
	SessionID  *uuid.UUID
}

// Validate checks the input fields.
func (i ResolveInput) Validate() error {
	var errs []domain.FieldError

	if i.TenantID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "tenant_id", Message: "required"})
	}

	name := strings.TrimSpace(i.SpokenName)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "spoken_name", Message: "required"})
	} else if len(name) > maxSpokenNameLen {
		errs = append(errs, domain.FieldError{Field: "spoken_name", Message: "too long"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Resolution is the outcome of Resolve. Product is set for Matched and
// Cloned, Provisional for Provisional. Ambiguous writes nothing and only
// carries Candidates and Suggestions.
type Resolution struct {
	Kind        domain.ResolutionKind
	Product     *domain.TenantProduct
	Provisional *domain.ProvisionalEntry
	Candidates  []matching.Candidate
	Suggestions []string
}
