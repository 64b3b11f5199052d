package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrRecordNotFound is returned when a record is not found.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")
)

// WrapError translates driver-specific errors into the package sentinels.
// Unrecognized errors are returned unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}

	// modernc.org/sqlite reports constraint violations as
	// SQLITE_CONSTRAINT_UNIQUE (2067) or SQLITE_CONSTRAINT_PRIMARYKEY (1555)
	// without exporting a typed error.
	msg := err.Error()
	if strings.Contains(msg, "constraint failed: UNIQUE constraint failed") ||
		strings.Contains(msg, "(1555)") || strings.Contains(msg, "(2067)") {
		return ErrDuplicateKey
	}

	return err
}
