package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/charmbracelet/log"
)

// traceQuery logs a query with its bind arguments at debug level. Queries
// are written as indented multiline strings in the store; collapse the
// whitespace so each ends up on a single log line.
func traceQuery(l *log.Logger, query string, args ...interface{}) {
	if l == nil {
		return
	}
	query = strings.Join(strings.Fields(query), " ")
	l.Debug("query", "sql", query, "args", args)
}

// Get runs a query expected to return one row and logs it.
func (d *DB) Get(dest interface{}, query string, args ...interface{}) error {
	traceQuery(d.logger, query, args...)
	return d.DB.Get(dest, query, args...)
}

// Select runs a query returning multiple rows and logs it.
func (d *DB) Select(dest interface{}, query string, args ...interface{}) error {
	traceQuery(d.logger, query, args...)
	return d.DB.Select(dest, query, args...)
}

// Exec runs a statement and logs it.
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	traceQuery(d.logger, query, args...)
	return d.DB.Exec(query, args...)
}

// GetContext runs a query expected to return one row and logs it.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	traceQuery(d.logger, query, args...)
	return d.DB.GetContext(ctx, dest, query, args...)
}

// SelectContext runs a query returning multiple rows and logs it.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	traceQuery(d.logger, query, args...)
	return d.DB.SelectContext(ctx, dest, query, args...)
}

// ExecContext runs a statement and logs it.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	traceQuery(d.logger, query, args...)
	return d.DB.ExecContext(ctx, query, args...)
}

// Get runs a query expected to return one row and logs it.
func (t *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	traceQuery(t.logger, query, args...)
	return t.Tx.Get(dest, query, args...)
}

// Select runs a query returning multiple rows and logs it.
func (t *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	traceQuery(t.logger, query, args...)
	return t.Tx.Select(dest, query, args...)
}

// Exec runs a statement and logs it.
func (t *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	traceQuery(t.logger, query, args...)
	return t.Tx.Exec(query, args...)
}

// GetContext runs a query expected to return one row and logs it.
func (t *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	traceQuery(t.logger, query, args...)
	return t.Tx.GetContext(ctx, dest, query, args...)
}

// SelectContext runs a query returning multiple rows and logs it.
func (t *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	traceQuery(t.logger, query, args...)
	return t.Tx.SelectContext(ctx, dest, query, args...)
}

// ExecContext runs a statement and logs it.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	traceQuery(t.logger, query, args...)
	return t.Tx.ExecContext(ctx, query, args...)
}
