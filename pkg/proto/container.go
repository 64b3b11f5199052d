package proto

import "github.com/gitgate/gitgate/pkg/db/models"

// Container is the repository-bearing entity addressed by a wire path.
// It is resolved once per request and read-only afterwards.
type Container interface {
	// ID returns the container's ID.
	ID() int64
	// Path returns the container's canonical wire path, without the ".git"
	// suffix.
	Path() string
	// Kind returns the repository kind addressed by the wire path.
	Kind() models.ContainerKind
	// IsPrivate returns whether the container requires authentication for
	// downloads.
	IsPrivate() bool
	// UserID returns the owning user's ID.
	UserID() int64
	// ForkID returns the immediate fork source's ID, if the container is a
	// fork.
	ForkID() (int64, bool)
	// RedirectedFrom returns the requested wire path when the container was
	// found through a redirect, and the empty string otherwise.
	RedirectedFrom() string
}
