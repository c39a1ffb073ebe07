package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrParentMissing is returned when a revision is written for an anchor
	// that does not exist.
	ErrParentMissing = errors.New("parent record does not exist")
	// ErrCurrentConflict is returned when a current-revision write loses a
	// race against a concurrent writer for the same parent. Callers retry.
	ErrCurrentConflict = errors.New("concurrent current-revision write")
	// ErrAlreadyAttached is returned when the extraction fields of a
	// relation revision were already set; they are write-once.
	ErrAlreadyAttached = errors.New("extraction fields already set")
)

// mapPgError translates constraint violations into sentinel errors so the
// service layer never inspects SQLSTATEs.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return ErrParentMissing
		case "23505": // unique_violation
			return ErrCurrentConflict
		}
	}
	return err
}
