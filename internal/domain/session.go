package domain

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProductRef points a session line at either a tenant catalog product or a
// provisional placeholder. Build it with RealRef or ProvisionalRef.
type ProductRef struct {
	Kind RefKind
	ID   uuid.UUID
}

// RealRef references a TenantProduct.
func RealRef(id uuid.UUID) ProductRef {
	return ProductRef{Kind: RefKindReal, ID: id}
}

// ProvisionalRef references a ProvisionalEntry.
func ProvisionalRef(id uuid.UUID) ProductRef {
	return ProductRef{Kind: RefKindProvisional, ID: id}
}

// IsProvisional reports whether the ref points at a provisional placeholder.
func (r ProductRef) IsProvisional() bool { return r.Kind == RefKindProvisional }

// IsZero reports whether the ref is unset.
func (r ProductRef) IsZero() bool { return r.ID == uuid.Nil }

func (r ProductRef) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// SessionItem is one counted line inside an inventory session.
type SessionItem struct {
	Ref             ProductRef
	QuantityFull    int
	QuantityPartial float64
	Name            *string
	Category        *string
}

// IsProvisional reports whether the line still points at a placeholder.
func (i SessionItem) IsProvisional() bool { return i.Ref.IsProvisional() }

// InventorySession is one counting pass owned by a tenant.
type InventorySession struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Status      SessionStatus
	Items       []SessionItem
	PeriodTag   string
	Label       *string
	Location    *string
	Notes       *string
	StartedAt   time.Time
	FinalizedAt *time.Time
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsFinalized reports whether the session reached its terminal state.
func (s *InventorySession) IsFinalized() bool {
	return s.Status == SessionStatusFinalized
}

// ItemUpdate carries a line to merge. Nil quantities leave the existing
// value untouched; on append they default to zero.
type ItemUpdate struct {
	Ref             ProductRef
	QuantityFull    *int
	QuantityPartial *float64
	Name            *string
	Category        *string
}

// MergeItems applies update to items: the line with the same ref gets the
// supplied quantity fields overwritten, otherwise a new line is appended.
// The input slice is not modified.
func MergeItems(items []SessionItem, update ItemUpdate) []SessionItem {
	out := make([]SessionItem, len(items), len(items)+1)
	copy(out, items)

	for i := range out {
		if out[i].Ref != update.Ref {
			continue
		}
		if update.QuantityFull != nil {
			out[i].QuantityFull = *update.QuantityFull
		}
		if update.QuantityPartial != nil {
			out[i].QuantityPartial = *update.QuantityPartial
		}
		return out
	}

	item := SessionItem{
		Ref:      update.Ref,
		Name:     update.Name,
		Category: update.Category,
	}
	if update.QuantityFull != nil {
		item.QuantityFull = *update.QuantityFull
	}
	if update.QuantityPartial != nil {
		item.QuantityPartial = *update.QuantityPartial
	}
	return append(out, item)
}

// RewriteRef replaces every line pointing at from with to and returns the
// number of lines rewritten. When a line for to already exists, the rewritten
// quantities are added to it and the provisional line is dropped, so refs stay
// unique within the session. A combined partial above one bottle carries into
// the full count. The input slice is not modified.
func RewriteRef(items []SessionItem, from, to ProductRef) ([]SessionItem, int) {
	out := make([]SessionItem, 0, len(items))
	var folded []SessionItem
	for _, item := range items {
		if item.Ref == from {
			folded = append(folded, item)
			continue
		}
		out = append(out, item)
	}
	n := len(folded)
	if n == 0 {
		return out, 0
	}

	target := slices.IndexFunc(out, func(it SessionItem) bool { return it.Ref == to })
	if target < 0 {
		// Keep the line where the first provisional line was.
		target = slices.IndexFunc(items, func(it SessionItem) bool { return it.Ref == from })
		first := folded[0]
		first.Ref = to
		out = slices.Insert(out, target, first)
		folded = folded[1:]
	}
	for _, f := range folded {
		addQuantities(&out[target], f)
	}
	return out, n
}

func addQuantities(dst *SessionItem, src SessionItem) {
	dst.QuantityFull += src.QuantityFull
	partial := roundPartial(dst.QuantityPartial + src.QuantityPartial)
	if partial > 1 {
		whole := math.Floor(partial)
		dst.QuantityFull += int(whole)
		partial = roundPartial(partial - whole)
	}
	dst.QuantityPartial = partial
	if dst.Name == nil {
		dst.Name = src.Name
	}
	if dst.Category == nil {
		dst.Category = src.Category
	}
}

// roundPartial keeps partials at two decimal places.
func roundPartial(v float64) float64 {
	return math.Round(v*100) / 100
}
