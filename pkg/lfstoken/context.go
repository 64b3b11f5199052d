package lfstoken

import "context"

// ContextKey is the context key for the transfer credential manager.
var ContextKey = &struct{ string }{"lfstoken"}

// FromContext returns the manager from the given context.
func FromContext(ctx context.Context) *Manager {
	if m, ok := ctx.Value(ContextKey).(*Manager); ok {
		return m
	}
	return nil
}

// WithContext returns a new context with the given manager.
func WithContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ContextKey, m)
}
