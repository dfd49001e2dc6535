// Package session implements the InventorySession repository using PostgreSQL.
// Items are stored as a JSONB array; every write is guarded by the version
// column so concurrent read-modify-write cycles cannot silently overwrite
// each other.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/barcount-backend/internal/adapter/postgres"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// Repo provides inventory session persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new session repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const sessionColumns = `id, tenant_id, status, items, period_tag, label, location, notes,
	started_at, finalized_at, version, created_at, updated_at`

const createSQL = `
INSERT INTO inventory_sessions (id, tenant_id, status, items, period_tag, label, location, notes,
	started_at, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $10)
RETURNING ` + sessionColumns

const getByIDSQL = `
SELECT ` + sessionColumns + `
FROM inventory_sessions
WHERE id = $1 AND tenant_id = $2`

const updateSQL = `
UPDATE inventory_sessions
SET status = $4, items = $5, label = $6, location = $7, notes = $8,
	finalized_at = $9, version = version + 1, updated_at = now()
WHERE id = $1 AND tenant_id = $2 AND version = $3 AND status <> 'FINALIZED'
RETURNING ` + sessionColumns

const deleteSQL = `
DELETE FROM inventory_sessions
WHERE id = $1 AND tenant_id = $2 AND version = $3 AND status <> 'FINALIZED'`

const listReferencingSQL = `
SELECT ` + sessionColumns + `
FROM inventory_sessions
WHERE items @> $1::jsonb
ORDER BY id
FOR UPDATE`

const rewriteItemsSQL = `
UPDATE inventory_sessions
SET items = $2, version = version + 1, updated_at = now()
WHERE id = $1`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a session filtered by tenant.
// Returns domain.ErrNotFound if the session does not exist or belongs to another tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.InventorySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	session, err := scanSession(querier.QueryRow(ctx, getByIDSQL, sessionID, tenantID))
	if err != nil {
		return nil, postgres.MapError(err, "session", sessionID)
	}

	return session, nil
}

// ListFilter narrows List. Nil fields are not filtered on.
type ListFilter struct {
	Status    *domain.SessionStatus
	PeriodTag *string
	Limit     int
	Offset    int
}

// List returns a tenant's sessions, newest first, and the total number of
// matching rows.
func (r *Repo) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) ([]*domain.InventorySession, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	where := sq.And{sq.Eq{"tenant_id": tenantID}}
	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if f.PeriodTag != nil {
		where = append(where, sq.Eq{"period_tag": *f.PeriodTag})
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("inventory_sessions").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build sessions count: %w", err)
	}
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	listSQL, listArgs, err := psql.Select(sessionColumns).
		From("inventory_sessions").
		Where(where).
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build sessions list: %w", err)
	}

	rows, err := querier.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, total, nil
}

// ListReferencingForUpdate returns every session, of any tenant and status,
// holding a line for ref, and locks the rows until the surrounding
// transaction ends. Must be called inside TxManager.RunInTx.
func (r *Repo) ListReferencingForUpdate(ctx context.Context, ref domain.ProductRef) ([]*domain.InventorySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	filter, err := json.Marshal([]refFilterJSON{{RefKind: string(ref.Kind), ProductID: ref.ID.String()}})
	if err != nil {
		return nil, fmt.Errorf("marshal ref filter: %w", err)
	}

	rows, err := querier.Query(ctx, listReferencingSQL, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions referencing %s: %w", ref, err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, fmt.Errorf("list sessions referencing %s: %w", ref, err)
	}

	return sessions, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new session at version 1.
func (r *Repo) Create(ctx context.Context, s *domain.InventorySession) (*domain.InventorySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	itemsJSON, err := marshalItems(s.Items)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	startedAt := s.StartedAt.UTC().Truncate(time.Microsecond)

	created, err := scanSession(querier.QueryRow(ctx, createSQL,
		s.ID, s.TenantID, string(s.Status), itemsJSON, s.PeriodTag,
		s.Label, s.Location, s.Notes, startedAt, now,
	))
	if err != nil {
		return nil, postgres.MapError(err, "session", s.ID)
	}

	return created, nil
}

// Update writes the mutable fields of s provided the stored row is still at
// s.Version and not finalized. On success the returned session carries the
// bumped version. A stale version, a finalized row or a missing row all
// yield domain.ErrConcurrentUpdate; callers re-read to tell them apart.
func (r *Repo) Update(ctx context.Context, s *domain.InventorySession) (*domain.InventorySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	itemsJSON, err := marshalItems(s.Items)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}

	updated, err := scanSession(querier.QueryRow(ctx, updateSQL,
		s.ID, s.TenantID, s.Version, string(s.Status), itemsJSON,
		s.Label, s.Location, s.Notes, s.FinalizedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s at version %d: %w", s.ID, s.Version, domain.ErrConcurrentUpdate)
		}
		return nil, postgres.MapError(err, "session", s.ID)
	}

	return updated, nil
}

// Delete removes a non-finalized session at the expected version.
// Like Update, a lost guard yields domain.ErrConcurrentUpdate.
func (r *Repo) Delete(ctx context.Context, tenantID, sessionID uuid.UUID, version int) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	ct, err := querier.Exec(ctx, deleteSQL, sessionID, tenantID, version)
	if err != nil {
		return postgres.MapError(err, "session", sessionID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %s at version %d: %w", sessionID, version, domain.ErrConcurrentUpdate)
	}

	return nil
}

// RewriteItems replaces the item list of a row locked by
// ListReferencingForUpdate. It ignores status: reconciliation rewrites
// finalized sessions too.
func (r *Repo) RewriteItems(ctx context.Context, sessionID uuid.UUID, items []domain.SessionItem) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	itemsJSON, err := marshalItems(items)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	ct, err := querier.Exec(ctx, rewriteItemsSQL, sessionID, itemsJSON)
	if err != nil {
		return postgres.MapError(err, "session", sessionID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanSession scans a single session row from pgx.Row.
func scanSession(row pgx.Row) (*domain.InventorySession, error) {
	var (
		s         domain.InventorySession
		status    string
		itemsJSON []byte
	)

	if err := row.Scan(
		&s.ID, &s.TenantID, &status, &itemsJSON, &s.PeriodTag, &s.Label, &s.Location, &s.Notes,
		&s.StartedAt, &s.FinalizedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = domain.SessionStatus(status)

	items, err := unmarshalItems(itemsJSON)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Items = items

	return &s, nil
}

// scanSessions scans multiple session rows from pgx.Rows.
func scanSessions(rows pgx.Rows) ([]*domain.InventorySession, error) {
	sessions := []*domain.InventorySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// ---------------------------------------------------------------------------
// JSONB serialization helpers for session items
// ---------------------------------------------------------------------------

// itemJSON is an intermediate struct for JSON marshaling of domain.SessionItem.
// Domain types have no json tags, so the repo layer handles serialization.
type itemJSON struct {
	RefKind         string  `json:"ref_kind"`
	ProductID       string  `json:"product_id"`
	QuantityFull    int     `json:"quantity_full"`
	QuantityPartial float64 `json:"quantity_partial"`
	Name            *string `json:"name,omitempty"`
	Category        *string `json:"category,omitempty"`
}

// refFilterJSON is the containment filter used to find sessions holding a ref.
type refFilterJSON struct {
	RefKind   string `json:"ref_kind"`
	ProductID string `json:"product_id"`
}

func marshalItems(items []domain.SessionItem) ([]byte, error) {
	out := make([]itemJSON, len(items))
	for i, it := range items {
		out[i] = itemJSON{
			RefKind:         string(it.Ref.Kind),
			ProductID:       it.Ref.ID.String(),
			QuantityFull:    it.QuantityFull,
			QuantityPartial: it.QuantityPartial,
			Name:            it.Name,
			Category:        it.Category,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return data, nil
}

func unmarshalItems(data []byte) ([]domain.SessionItem, error) {
	if len(data) == 0 {
		return []domain.SessionItem{}, nil
	}

	var raw []itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}

	items := make([]domain.SessionItem, len(raw))
	for i, it := range raw {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("unmarshal items: item %d: %w", i, err)
		}
		kind := domain.RefKind(it.RefKind)
		if !kind.IsValid() {
			return nil, fmt.Errorf("unmarshal items: item %d: unknown ref kind %q", i, it.RefKind)
		}
		items[i] = domain.SessionItem{
			Ref:             domain.ProductRef{Kind: kind, ID: id},
			QuantityFull:    it.QuantityFull,
			QuantityPartial: it.QuantityPartial,
			Name:            it.Name,
			Category:        it.Category,
		}
	}
	return items, nil
}
