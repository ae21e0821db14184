package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict reports that a concurrent writer got in the way: a compare-and-swap
// update matched no row, a lock wait timed out, or Postgres aborted the
// transaction to resolve a serialization failure or deadlock. Callers may retry.
var ErrConflict = errors.New("concurrent modification")

// Postgres error codes treated as conflicts.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
)

// Classify wraps retryable Postgres failures with ErrConflict and returns every
// other error unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation on the
// named constraint. An empty name matches any constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
