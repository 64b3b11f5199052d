package store

import (
	"context"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
)

// ContainerStore is an interface for managing containers, their redirects,
// deploy tokens, and collaborators.
type ContainerStore interface {
	GetContainerByID(ctx context.Context, h db.Handler, id int64) (models.Container, error)
	GetContainerByPath(ctx context.Context, h db.Handler, path string) (models.Container, error)
	GetContainerRedirect(ctx context.Context, h db.Handler, oldPath string) (models.ContainerRedirect, error)
	CreateContainer(ctx context.Context, h db.Handler, path string, kind models.ContainerKind, userID int64, private bool) (models.Container, error)
	CreateContainerRedirect(ctx context.Context, h db.Handler, oldPath string, containerID int64) error
	SetContainerFork(ctx context.Context, h db.Handler, id int64, forkID int64) error
	IncrementContainerFetch(ctx context.Context, h db.Handler, id int64) error

	FindDeployToken(ctx context.Context, h db.Handler, tokenHash string) (models.DeployToken, error)
	CreateDeployToken(ctx context.Context, h db.Handler, name, username string, containerID int64, tokenHash string, canWrite bool, expiresAt time.Time) (models.DeployToken, error)

	GetCollaborator(ctx context.Context, h db.Handler, containerID, userID int64) (models.Collaborator, error)
	AddCollaborator(ctx context.Context, h db.Handler, containerID, userID int64, level string) error
	RemoveCollaborator(ctx context.Context, h db.Handler, containerID, userID int64) error
}
