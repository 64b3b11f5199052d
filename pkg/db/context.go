// Package db manages the gateway's database connection.
package db

import "context"

// ContextKey carries the open database through a context.
var ContextKey = struct{ string }{"db"}

// FromContext returns the database attached to the context, or nil.
func FromContext(ctx context.Context) *DB {
	if db, ok := ctx.Value(ContextKey).(*DB); ok {
		return db
	}
	return nil
}

// WithContext attaches the database to the context.
func WithContext(ctx context.Context, db *DB) context.Context {
	return context.WithValue(ctx, ContextKey, db)
}
