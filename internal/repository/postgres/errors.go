package postgres

import (
	"database/sql"
	stderrors "errors"

	"github.com/andresuchdata/restock/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// SQLSTATE codes that mean "another writer got there first; try again".
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23505": true, // unique_violation
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrap annotates err with a stack and maps driver conditions onto the
// repository sentinels.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(repository.ErrNotFound, msg)
	}
	if transientCodes[sqlState(err)] {
		return errors.Wrapf(repository.ErrConflict, "%s: %v", msg, err)
	}
	return errors.Wrap(err, msg)
}
