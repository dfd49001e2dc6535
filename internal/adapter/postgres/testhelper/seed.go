package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedRefProduct inserts a reference catalog entry. The brand gets a unique
// suffix so tests sharing the database never collide on the brand/variant index.
func SeedRefProduct(t *testing.T, pool *pgxpool.Pool, brand string, variant *string) domain.RefProduct {
	t.Helper()
	ctx := context.Background()

	p := domain.RefProduct{
		ID:       uuid.New(),
		Brand:    brand + " " + uniqueSuffix(),
		Category: "Vodka",
		Variant:  variant,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO ref_products (id, brand, category, variant)
		 VALUES ($1, $2, $3, $4)
		 RETURNING seq, created_at`,
		p.ID, p.Brand, p.Category, p.Variant,
	).Scan(&p.Seq, &p.CreatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedRefProduct: %v", err)
	}

	return p
}

// SeedTenantProduct inserts a tenant catalog row, optionally cloned from ref.
func SeedTenantProduct(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, ref *domain.RefProduct) domain.TenantProduct {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	var p domain.TenantProduct
	if ref != nil {
		p = *domain.CloneForTenant(ref, tenantID, now)
	} else {
		p = domain.TenantProduct{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Brand:     "House " + uniqueSuffix(),
			Category:  "Other",
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO tenant_products (id, tenant_id, ref_product_id, brand, category, variant, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.RefProductID, p.Brand, p.Category, p.Variant, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTenantProduct: %v", err)
	}

	return p
}

// SeedProvisional inserts an unresolved provisional entry.
func SeedProvisional(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, spokenName string, sessionID *uuid.UUID) domain.ProvisionalEntry {
	t.Helper()
	ctx := context.Background()

	e := domain.ProvisionalEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		SpokenName: spokenName,
		SessionID:  sessionID,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO provisional_products (id, tenant_id, spoken_name, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.TenantID, e.SpokenName, e.SessionID, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProvisional: %v", err)
	}

	return e
}

// seedItem mirrors the JSONB layout written by the session repository.
type seedItem struct {
	RefKind         string  `json:"ref_kind"`
	ProductID       string  `json:"product_id"`
	QuantityFull    int     `json:"quantity_full"`
	QuantityPartial float64 `json:"quantity_partial"`
	Name            *string `json:"name,omitempty"`
	Category        *string `json:"category,omitempty"`
}

// SeedSession inserts a session in the given status holding items.
func SeedSession(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, status domain.SessionStatus, items []domain.SessionItem) domain.InventorySession {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := domain.InventorySession{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    status,
		Items:     items,
		PeriodTag: now.Format("2006-01"),
		StartedAt: now,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == domain.SessionStatusFinalized {
		s.FinalizedAt = &now
	}

	raw := make([]seedItem, 0, len(items))
	for _, it := range items {
		raw = append(raw, seedItem{
			RefKind:         string(it.Ref.Kind),
			ProductID:       it.Ref.ID.String(),
			QuantityFull:    it.QuantityFull,
			QuantityPartial: it.QuantityPartial,
			Name:            it.Name,
			Category:        it.Category,
		})
	}
	itemsJSON, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("testhelper: SeedSession marshal items: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO inventory_sessions (id, tenant_id, status, items, period_tag, started_at, finalized_at, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TenantID, string(s.Status), itemsJSON, s.PeriodTag, s.StartedAt, s.FinalizedAt, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSession: %v", err)
	}

	return s
}
