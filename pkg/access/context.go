package access

import "context"

// ContextKey carries the resolved access level through a request context.
var ContextKey = &struct{ string }{"access"}

// FromContext returns the access level attached to the context, or -1 when
// none has been resolved.
func FromContext(ctx context.Context) AccessLevel {
	if ac, ok := ctx.Value(ContextKey).(AccessLevel); ok {
		return ac
	}
	return -1
}

// WithContext attaches the access level to the context.
func WithContext(ctx context.Context, ac AccessLevel) context.Context {
	return context.WithValue(ctx, ContextKey, ac)
}
