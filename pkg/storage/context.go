package storage

import "context"

// ContextKey is the context key for the storage backend.
var ContextKey = &struct{ string }{"storage"}

// FromContext returns the storage backend from the given context.
func FromContext(ctx context.Context) Storage {
	if s, ok := ctx.Value(ContextKey).(Storage); ok {
		return s
	}
	return nil
}

// WithContext returns a new context with the given storage backend.
func WithContext(ctx context.Context, s Storage) context.Context {
	return context.WithValue(ctx, ContextKey, s)
}
