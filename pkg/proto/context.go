package proto

import "context"

// ContextKeyIdentity is the context key for the resolved identity.
var ContextKeyIdentity = &struct{ string }{"identity"}

// ContextKeyContainer is the context key for the resolved container.
var ContextKeyContainer = &struct{ string }{"container"}

// IdentityFromContext returns the resolved identity from the context, or nil
// for anonymous requests.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ContextKeyIdentity).(Identity); ok {
		return id
	}
	return nil
}

// WithIdentityContext returns a new context with the identity attached.
func WithIdentityContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// UserFromContext returns the resolved identity as a User, or nil when the
// request is anonymous or authenticated by a deploy token.
func UserFromContext(ctx context.Context) User {
	if u, ok := IdentityFromContext(ctx).(User); ok {
		return u
	}
	return nil
}

// ContainerFromContext returns the container from the context.
func ContainerFromContext(ctx context.Context) Container {
	if c, ok := ctx.Value(ContextKeyContainer).(Container); ok {
		return c
	}
	return nil
}

// WithContainerContext returns a new context with the container attached.
func WithContainerContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, ContextKeyContainer, c)
}
