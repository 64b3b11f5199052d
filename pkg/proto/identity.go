// Package proto defines the domain types shared between the gateway's
// components.
package proto

// Identity is the resolved caller of a request. It is either a User, a
// DeployToken, or absent (anonymous downloads).
type Identity interface {
	// ID returns the identity's ID.
	ID() int64
	// Name returns the identity's display name, used as the LFS lock owner
	// name and in activity accounting.
	Name() string
}

// User is an interface representing an authenticated user.
type User interface {
	Identity

	// Username returns the user's username.
	Username() string
	// IsAdmin returns whether the user is an admin.
	IsAdmin() bool
	// Password returns the user's password hash.
	Password() string
}

// DeployToken is a container-scoped credential identity.
type DeployToken interface {
	Identity

	// ContainerID returns the container the token is scoped to.
	ContainerID() int64
	// CanWrite returns whether the token grants push access.
	CanWrite() bool
}
