package inventory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

const (
	maxListLimit    = 100
	maxLabelLen     = 200
	maxNotesLen     = 2000
	maxItemNameLen  = 200
	maxQuantityFull = 100000
)

var periodTagRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// StartInput opens a session. Items without a ProductID become provisional
// entries named by Name.
type StartInput struct {
	TenantID  uuid.UUID
	PeriodTag string
	Label     *string
	Location  *string
	Notes     *string
	Items     []StartItem
}

// StartItem is an initial line of a new session.
type StartItem struct {
	ProductID       *uuid.UUID
	Name            *string
	Category        *string
	QuantityFull    int
	QuantityPartial float64
}

func (i StartInput) Validate() error {
	var errs []domain.FieldError

	if i.TenantID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "tenant_id", Message: "required"})
	}
	if i.PeriodTag != "" && !periodTagRe.MatchString(i.PeriodTag) {
		errs = append(errs, domain.FieldError{Field: "period_tag", Message: "must be YYYY-MM"})
	}
	errs = append(errs, validateDetails(i.Label, i.Location, i.Notes)...)

	seen := make(map[uuid.UUID]struct{}, len(i.Items))
	for idx, item := range i.Items {
		field := fmt.Sprintf("items[%d]", idx)
		errs = append(errs, validateQuantities(field, item.QuantityFull, item.QuantityPartial)...)
		if item.Name != nil && len(*item.Name) > maxItemNameLen {
			errs = append(errs, domain.FieldError{Field: field + ".name", Message: "too long"})
		}
		if item.ProductID == nil {
			continue
		}
		if _, dup := seen[*item.ProductID]; dup {
			errs = append(errs, domain.FieldError{Field: field + ".product_id", Message: "duplicate product"})
		}
		seen[*item.ProductID] = struct{}{}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ItemInput is a line to merge into a session. Nil quantities keep the
// current value of an existing line.
type ItemInput struct {
	Ref             domain.ProductRef
	QuantityFull    *int
	QuantityPartial *float64
	Name            *string
	Category        *string
}

func (i ItemInput) Validate() error {
	var errs []domain.FieldError

	if i.Ref.IsZero() {
		errs = append(errs, domain.FieldError{Field: "product_id", Message: "required"})
	}
	if !i.Ref.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "ref_kind", Message: "invalid value"})
	}
	if i.QuantityFull == nil && i.QuantityPartial == nil {
		errs = append(errs, domain.FieldError{Field: "quantity", Message: "at least one quantity required"})
	}
	full, partial := 0, 0.0
	if i.QuantityFull != nil {
		full = *i.QuantityFull
	}
	if i.QuantityPartial != nil {
		partial = *i.QuantityPartial
	}
	errs = append(errs, validateQuantities("", full, partial)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (i ItemInput) update() domain.ItemUpdate {
	return domain.ItemUpdate{
		Ref:             i.Ref,
		QuantityFull:    i.QuantityFull,
		QuantityPartial: i.QuantityPartial,
		Name:            i.Name,
		Category:        i.Category,
	}
}

// UpdateDetailsInput changes the descriptive fields of a session. Nil fields
// are left as they are.
type UpdateDetailsInput struct {
	Label    *string
	Location *string
	Notes    *string
}

func (i UpdateDetailsInput) Validate() error {
	if errs := validateDetails(i.Label, i.Location, i.Notes); len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListInput filters a tenant's sessions.
type ListInput struct {
	Status    *domain.SessionStatus
	PeriodTag *string
	Limit     int
	Offset    int
}

func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid value"})
	}
	if i.PeriodTag != nil && !periodTagRe.MatchString(*i.PeriodTag) {
		errs = append(errs, domain.FieldError{Field: "period_tag", Message: "must be YYYY-MM"})
	}
	if i.Limit < 0 || i.Limit > maxListLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: fmt.Sprintf("must be between 0 and %d", maxListLimit)})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateDetails(label, location, notes *string) []domain.FieldError {
	var errs []domain.FieldError
	if label != nil && len(strings.TrimSpace(*label)) > maxLabelLen {
		errs = append(errs, domain.FieldError{Field: "label", Message: "too long"})
	}
	if location != nil && len(strings.TrimSpace(*location)) > maxLabelLen {
		errs = append(errs, domain.FieldError{Field: "location", Message: "too long"})
	}
	if notes != nil && len(*notes) > maxNotesLen {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "too long"})
	}
	return errs
}

func validateQuantities(prefix string, full int, partial float64) []domain.FieldError {
	if prefix != "" {
		prefix += "."
	}
	var errs []domain.FieldError
	if full < 0 || full > maxQuantityFull {
		errs = append(errs, domain.FieldError{Field: prefix + "quantity_full", Message: "out of range"})
	}
	if partial < 0 || partial > 1 {
		errs = append(errs, domain.FieldError{Field: prefix + "quantity_partial", Message: "must be between 0 and 1"})
	}
	return errs
}
