package models

import (
	"database/sql"
	"time"
)

// ContainerKind discriminates the repository-bearing entity a wire path
// addresses.
type ContainerKind string

const (
	// ContainerKindProject is a project repository.
	ContainerKindProject ContainerKind = "project"

	// ContainerKindWiki is a project's wiki repository.
	ContainerKindWiki ContainerKind = "wiki"
)

// Container is a repository-bearing entity addressed by a wire path.
type Container struct {
	ID         int64         `db:"id"`
	Path       string        `db:"path"`
	Kind       ContainerKind `db:"kind"`
	Private    bool          `db:"private"`
	UserID     int64         `db:"user_id"`
	ForkID     sql.NullInt64 `db:"fork_id"`
	FetchCount int64         `db:"fetch_count"`
	FetchedAt  sql.NullTime  `db:"fetched_at"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

// ContainerRedirect records a path a container was previously reachable
// under, after a rename or transfer.
type ContainerRedirect struct {
	ID          int64     `db:"id"`
	OldPath     string    `db:"old_path"`
	ContainerID int64     `db:"container_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// DeployToken is a container-scoped credential.
type DeployToken struct {
	ID          int64        `db:"id"`
	Name        string       `db:"name"`
	ContainerID int64        `db:"container_id"`
	Username    string       `db:"username"`
	Token       string       `db:"token"`
	CanWrite    bool         `db:"can_write"`
	ExpiresAt   sql.NullTime `db:"expires_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

// Collaborator grants a user an access level on a container.
type Collaborator struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	ContainerID int64     `db:"container_id"`
	Level       string    `db:"level"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
