package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProvisionalEntry stands in for a spoken product name that matched nothing
// in the catalog. It is never deleted; ResolvedTo is set once a reviewer maps
// it to a real tenant product.
type ProvisionalEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	SpokenName string
	SessionID  *uuid.UUID
	ResolvedTo *uuid.UUID
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// IsResolved reports whether the entry has been mapped to a real product.
func (p *ProvisionalEntry) IsResolved() bool {
	return p.ResolvedTo != nil
}
