package repo

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound means no record exists with the given id.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique column (username, sku) already holds the value.
	ErrConflict = errors.New("already exists")
)

// uniqueViolation is the Postgres error code for duplicate key values.
const uniqueViolation = "23505"

// translate maps driver-level errors to the repo sentinels so handlers never
// have to know about sql.ErrNoRows or pq error codes.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}
