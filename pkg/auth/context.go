package auth

import "context"

// ContextKey is the context key for the resolver.
var ContextKey = &struct{ string }{"auth"}

// FromContext returns the resolver from the given context.
func FromContext(ctx context.Context) *Resolver {
	if r, ok := ctx.Value(ContextKey).(*Resolver); ok {
		return r
	}
	return nil
}

// WithContext returns a new context with the given resolver.
func WithContext(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, ContextKey, r)
}

// ResultContextKey is the context key for the resolved Result.
var ResultContextKey = &struct{ string }{"auth-result"}

// ResultFromContext returns the resolution result stored for the request.
func ResultFromContext(ctx context.Context) *Result {
	if res, ok := ctx.Value(ResultContextKey).(*Result); ok {
		return res
	}
	return nil
}

// WithResultContext returns a new context with the given resolution result.
func WithResultContext(ctx context.Context, res *Result) context.Context {
	return context.WithValue(ctx, ResultContextKey, res)
}
