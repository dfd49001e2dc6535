// Package provisional implements the provisional product repository using
// PostgreSQL. Rows are never deleted; resolution only stamps resolved_to.
package provisional

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const selectColumns = `id, tenant_id, spoken_name, session_id, resolved_to, created_at, resolved_at`

const createSQL = `
INSERT INTO provisional_products (id, tenant_id, spoken_name, session_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + selectColumns

const getByIDSQL = `SELECT ` + selectColumns + ` FROM provisional_products WHERE id = $1`

const getForUpdateSQL = getByIDSQL + ` FOR UPDATE`

const markResolvedSQL = `
UPDATE provisional_products
SET resolved_to = $2, resolved_at = $3
WHERE id = $1 AND resolved_to IS NULL`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides provisional product persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new provisional product repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new unresolved provisional entry.
func (r *Repo) Create(ctx context.Context, e domain.ProvisionalEntry) (*domain.ProvisionalEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	got, err := scanEntry(q.QueryRow(ctx, createSQL, e.ID, e.TenantID, e.SpokenName, e.SessionID, e.CreatedAt))
	if err != nil {
		return nil, postgres.MapError(err, "provisional_product", e.ID)
	}
	return got, nil
}

// MarkResolved points an unresolved entry at a tenant product. It returns
// ErrConflict when the entry was already resolved.
func (r *Repo) MarkResolved(ctx context.Context, id, resolvedTo uuid.UUID, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := q.Exec(ctx, markResolvedSQL, id, resolvedTo, at)
	if err != nil {
		return postgres.MapError(err, "provisional_product", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provisional_product %s: already resolved: %w", id, domain.ErrConflict)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a provisional entry by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProvisionalEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	got, err := scanEntry(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "provisional_product", id)
	}
	return got, nil
}

// GetForUpdate returns a provisional entry and locks its row until the
// surrounding transaction ends. Must be called inside TxManager.RunInTx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProvisionalEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	got, err := scanEntry(q.QueryRow(ctx, getForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "provisional_product", id)
	}
	return got, nil
}

// ListFilter narrows ListUnresolved.
type ListFilter struct {
	TenantID *uuid.UUID
	Limit    int
	Offset   int
}

// ListUnresolved returns unresolved entries, oldest first, and the total
// number of matching rows.
func (r *Repo) ListUnresolved(ctx context.Context, f ListFilter) ([]domain.ProvisionalEntry, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	where := sq.And{sq.Eq{"resolved_to": nil}}
	if f.TenantID != nil {
		where = append(where, sq.Eq{"tenant_id": *f.TenantID})
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("provisional_products").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build provisional count: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count provisional_products: %w", err)
	}

	listSQL, listArgs, err := psql.Select(selectColumns).
		From("provisional_products").
		Where(where).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build provisional list: %w", err)
	}

	rows, err := q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list provisional_products: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ProvisionalEntry, 0, f.Limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan provisional_product: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate provisional_products: %w", err)
	}

	return entries, total, nil
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

func scanEntry(row pgx.Row) (*domain.ProvisionalEntry, error) {
	var e domain.ProvisionalEntry
	if err := row.Scan(
		&e.ID, &e.TenantID, &e.SpokenName, &e.SessionID, &e.ResolvedTo, &e.CreatedAt, &e.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
