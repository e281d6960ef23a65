package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// wrapQueryError maps driver errors to the application sentinels.
// entity is used in hints, e.g. "Inventory transfer not found".
func wrapQueryError(err error, entity string, details map[string]any) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	case isUniqueViolation(err):
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	default:
		return ierr.WithError(err).
			WithHint("A database error occurred").
			Mark(ierr.ErrDatabase)
	}
}

func notFound(entity string, details map[string]any) error {
	return ierr.NewErrorf("%s not found", entity).
		WithHintf("%s not found", entity).
		WithReportableDetails(details).
		Mark(ierr.ErrNotFound)
}
