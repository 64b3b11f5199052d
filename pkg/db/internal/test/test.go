// Package test opens throwaway databases for store tests.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gitgate/gitgate/pkg/db"
)

// OpenSqlite opens a SQLite database in a per-test temp directory and closes
// it when the test finishes. A nil ctx falls back to context.TODO().
func OpenSqlite(ctx context.Context, tb testing.TB) (*db.DB, error) {
	if ctx == nil {
		ctx = context.TODO()
	}
	dbx, err := db.Open(ctx, "sqlite", filepath.Join(tb.TempDir(), "test.db"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})
	return dbx, nil
}
