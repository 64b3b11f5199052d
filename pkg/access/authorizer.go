package access

import (
	"context"
	"errors"

	"github.com/gitgate/gitgate/pkg/proto"
)

var (
	// ErrForbidden is returned when the identity lacks the requested
	// ability on the container.
	ErrForbidden = errors.New("access denied")

	// ErrNotFound is returned when the container should appear absent to
	// the identity.
	ErrNotFound = errors.New("not found")

	// ErrUnprocessable is returned when the container could not be
	// materialized as part of the access check.
	ErrUnprocessable = errors.New("unprocessable")

	// ErrTimeout is returned when the capability check exceeded its
	// deadline. Clients may retry; the gateway does not.
	ErrTimeout = errors.New("authorization timed out")
)

// Authorizer is the capability engine consumed by the protocol handlers.
// The gateway never encodes policy rules itself, it only asks whether the
// identity may perform the ability on the container. identity may be nil
// for anonymous requests.
type Authorizer interface {
	Authorize(ctx context.Context, identity proto.Identity, ability Ability, container proto.Container) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, identity proto.Identity, ability Ability, container proto.Container) error

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, identity proto.Identity, ability Ability, container proto.Container) error {
	return f(ctx, identity, ability, container)
}
