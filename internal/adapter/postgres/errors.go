package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// sqlStateErrors maps the SQLSTATE codes barcount writes can raise to domain
// errors.
var sqlStateErrors = map[string]error{
	"23505": domain.ErrAlreadyExists,    // unique_violation: a concurrent clone or seed row
	"23503": domain.ErrNotFound,         // foreign_key_violation: referenced row is gone
	"23514": domain.ErrValidation,       // check_violation
	"40001": domain.ErrConcurrentUpdate, // serialization_failure
}

// MapError annotates a repository error with the row it concerns. Missing
// rows and known constraint failures become domain errors; context errors
// and anything else keep their identity.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", entity, id, domainCause(err))
}

func domainCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := sqlStateErrors[pgErr.Code]; ok {
			return mapped
		}
	}
	return err
}
