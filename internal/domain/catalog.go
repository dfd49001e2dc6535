package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RefProduct is an immutable reference catalog entry shared across tenants.
type RefProduct struct {
	ID             uuid.UUID
	Seq            int64 // insertion order, used for deterministic tie-breaking
	Brand          string
	Category       string
	Subcategory    *string
	Variant        *string
	Region         *string
	Country        *string
	Style          *string
	ABV            *float64
	SizeML         *int
	Unit           *string
	Notes          *string
	IsDiscontinued bool
	CreatedAt      time.Time
}

// DisplayName returns "Brand Variant", or just the brand when there is no variant.
func (p *RefProduct) DisplayName() string {
	return displayName(p.Brand, p.Variant)
}

// TenantProduct is a tenant's private catalog row, optionally cloned from a RefProduct.
type TenantProduct struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	RefProductID   *uuid.UUID
	Brand          string
	Category       string
	Subcategory    *string
	Variant        *string
	Region         *string
	Country        *string
	Style          *string
	ABV            *float64
	SizeML         *int
	Unit           *string
	Notes          *string
	IsDiscontinued bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName returns "Brand Variant", or just the brand when there is no variant.
func (p *TenantProduct) DisplayName() string {
	return displayName(p.Brand, p.Variant)
}

// CloneForTenant copies every descriptive field of ref into a new TenantProduct
// owned by tenantID and carrying a back-reference to ref.
func CloneForTenant(ref *RefProduct, tenantID uuid.UUID, now time.Time) *TenantProduct {
	refID := ref.ID
	return &TenantProduct{
		ID:             uuid.New(),
		TenantID:       tenantID,
		RefProductID:   &refID,
		Brand:          ref.Brand,
		Category:       ref.Category,
		Subcategory:    copyPtr(ref.Subcategory),
		Variant:        copyPtr(ref.Variant),
		Region:         copyPtr(ref.Region),
		Country:        copyPtr(ref.Country),
		Style:          copyPtr(ref.Style),
		ABV:            copyPtr(ref.ABV),
		SizeML:         copyPtr(ref.SizeML),
		Unit:           copyPtr(ref.Unit),
		Notes:          copyPtr(ref.Notes),
		IsDiscontinued: ref.IsDiscontinued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func displayName(brand string, variant *string) string {
	if variant == nil || strings.TrimSpace(*variant) == "" {
		return brand
	}
	return brand + " " + *variant
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
