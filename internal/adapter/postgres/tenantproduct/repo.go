// Package tenantproduct implements the tenant catalog repository using PostgreSQL.
package tenantproduct

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

const table = "tenant_products"

var columns = []string{
	"id", "tenant_id", "ref_product_id", "brand", "category", "subcategory", "variant",
	"region", "country", "style", "abv", "size_ml", "unit", "notes", "is_discontinued",
	"created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides tenant catalog persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new tenant catalog repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID             uuid.UUID  `db:"id"`
	TenantID       uuid.UUID  `db:"tenant_id"`
	RefProductID   *uuid.UUID `db:"ref_product_id"`
	Brand          string     `db:"brand"`
	Category       string     `db:"category"`
	Subcategory    *string    `db:"subcategory"`
	Variant        *string    `db:"variant"`
	Region         *string    `db:"region"`
	Country        *string    `db:"country"`
	Style          *string    `db:"style"`
	ABV            *float64   `db:"abv"`
	SizeML         *int       `db:"size_ml"`
	Unit           *string    `db:"unit"`
	Notes          *string    `db:"notes"`
	IsDiscontinued bool       `db:"is_discontinued"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a tenant product by its ID regardless of owner.
// Callers that act on behalf of a tenant must compare TenantID themselves.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantProduct, error) {
	return r.getOne(ctx, id, sq.Eq{"id": id})
}

// GetByRef returns the tenant's copy of a reference product.
func (r *Repo) GetByRef(ctx context.Context, tenantID, refProductID uuid.UUID) (*domain.TenantProduct, error) {
	return r.getOne(ctx, refProductID, sq.Eq{"tenant_id": tenantID, "ref_product_id": refProductID})
}

func (r *Repo) getOne(ctx context.Context, id uuid.UUID, where sq.Sqlizer) (*domain.TenantProduct, error) {
	query, args, err := psql.Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tenant_product query: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return nil, postgres.MapError(err, "tenant_product", id)
	}
	p := toDomain(rw)
	return &p, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a tenant product. A second copy of the same reference
// product for the same tenant yields ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p *domain.TenantProduct) (*domain.TenantProduct, error) {
	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(
			p.ID, p.TenantID, p.RefProductID, p.Brand, p.Category, p.Subcategory, p.Variant,
			p.Region, p.Country, p.Style, p.ABV, p.SizeML, p.Unit, p.Notes, p.IsDiscontinued,
			p.CreatedAt, p.UpdatedAt,
		).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tenant_product insert: %w", err)
	}

	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, query, args...); err != nil {
		return nil, postgres.MapError(err, "tenant_product", p.ID)
	}
	created := toDomain(rw)
	return &created, nil
}

func toDomain(rw row) domain.TenantProduct {
	return domain.TenantProduct{
		ID:             rw.ID,
		TenantID:       rw.TenantID,
		RefProductID:   rw.RefProductID,
		Brand:          rw.Brand,
		Category:       rw.Category,
		Subcategory:    rw.Subcategory,
		Variant:        rw.Variant,
		Region:         rw.Region,
		Country:        rw.Country,
		Style:          rw.Style,
		ABV:            rw.ABV,
		SizeML:         rw.SizeML,
		Unit:           rw.Unit,
		Notes:          rw.Notes,
		IsDiscontinued: rw.IsDiscontinued,
		CreatedAt:      rw.CreatedAt,
		UpdatedAt:      rw.UpdatedAt,
	}
}
