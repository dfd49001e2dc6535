// Package refproduct implements the reference catalog repository using PostgreSQL.
package refproduct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const selectColumns = `id, seq, brand, category, subcategory, variant, region, country, style,
	abv, size_ml, unit, notes, is_discontinued, created_at`

const listAllSQL = `SELECT ` + selectColumns + ` FROM ref_products ORDER BY seq`

const getByIDSQL = `SELECT ` + selectColumns + ` FROM ref_products WHERE id = $1`

const createSQL = `
INSERT INTO ref_products (id, brand, category, subcategory, variant, region, country, style,
	abv, size_ml, unit, notes, is_discontinued)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (lower(brand), lower(coalesce(variant, ''))) DO NOTHING
RETURNING ` + selectColumns

const countSQL = `SELECT count(*) FROM ref_products`

// Repo provides reference catalog persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new reference catalog repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// row is the scany scan target for ref_products.
type row struct {
	ID             uuid.UUID `db:"id"`
	Seq            int64     `db:"seq"`
	Brand          string    `db:"brand"`
	Category       string    `db:"category"`
	Subcategory    *string   `db:"subcategory"`
	Variant        *string   `db:"variant"`
	Region         *string   `db:"region"`
	Country        *string   `db:"country"`
	Style          *string   `db:"style"`
	ABV            *float64  `db:"abv"`
	SizeML         *int      `db:"size_ml"`
	Unit           *string   `db:"unit"`
	Notes          *string   `db:"notes"`
	IsDiscontinued bool      `db:"is_discontinued"`
	CreatedAt      time.Time `db:"created_at"`
}

// ListAll returns the whole reference catalog in insertion order.
// It is the source the matcher's cache rebuilds from.
func (r *Repo) ListAll(ctx context.Context) ([]domain.RefProduct, error) {
	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, listAllSQL); err != nil {
		return nil, fmt.Errorf("list ref_products: %w", err)
	}

	products := make([]domain.RefProduct, len(rows))
	for i, rw := range rows {
		products[i] = toDomain(rw)
	}
	return products, nil
}

// GetByID returns a reference product by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefProduct, error) {
	var rw row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, getByIDSQL, id); err != nil {
		return nil, postgres.MapError(err, "ref_product", id)
	}
	p := toDomain(rw)
	return &p, nil
}

// Create inserts a reference product. A product with the same brand and
// variant (case-insensitive) already in the catalog yields ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p domain.RefProduct) (*domain.RefProduct, error) {
	var rw row
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &rw, createSQL,
		p.ID, p.Brand, p.Category, p.Subcategory, p.Variant, p.Region, p.Country, p.Style,
		p.ABV, p.SizeML, p.Unit, p.Notes, p.IsDiscontinued,
	)
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ref_product %s: %w", p.DisplayName(), domain.ErrAlreadyExists)
		}
		return nil, postgres.MapError(err, "ref_product", p.ID)
	}
	created := toDomain(rw)
	return &created, nil
}

// Count returns the number of reference products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ref_products: %w", err)
	}
	return n, nil
}

func toDomain(rw row) domain.RefProduct {
	return domain.RefProduct{
		ID:             rw.ID,
		Seq:            rw.Seq,
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
	}
}
