package database

import (
	"context"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/gitgate/gitgate/pkg/utils"
)

type containerStore struct{}

var _ store.ContainerStore = (*containerStore)(nil)

// GetContainerByID implements store.ContainerStore.
func (*containerStore) GetContainerByID(ctx context.Context, tx db.Handler, id int64) (models.Container, error) {
	var m models.Container
	query := tx.Rebind(`SELECT * FROM containers WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// GetContainerByPath implements store.ContainerStore.
func (*containerStore) GetContainerByPath(ctx context.Context, tx db.Handler, path string) (models.Container, error) {
	var m models.Container
	query := tx.Rebind(`SELECT * FROM containers WHERE path = ?;`)
	err := tx.GetContext(ctx, &m, query, path)
	return m, err //nolint:wrapcheck
}

// GetContainerRedirect implements store.ContainerStore.
func (*containerStore) GetContainerRedirect(ctx context.Context, tx db.Handler, oldPath string) (models.ContainerRedirect, error) {
	var m models.ContainerRedirect
	query := tx.Rebind(`SELECT * FROM container_redirects WHERE old_path = ?;`)
	err := tx.GetContext(ctx, &m, query, oldPath)
	return m, err //nolint:wrapcheck
}

// CreateContainer implements store.ContainerStore.
func (*containerStore) CreateContainer(ctx context.Context, tx db.Handler, path string, kind models.ContainerKind, userID int64, private bool) (models.Container, error) {
	var m models.Container
	if err := utils.ValidateContainerPath(path); err != nil {
		return m, err //nolint:wrapcheck
	}

	query := tx.Rebind(`INSERT INTO containers (path, kind, private, user_id, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP) RETURNING *;`)
	err := tx.GetContext(ctx, &m, query, path, kind, private, userID)
	return m, err //nolint:wrapcheck
}

// CreateContainerRedirect implements store.ContainerStore.
func (*containerStore) CreateContainerRedirect(ctx context.Context, tx db.Handler, oldPath string, containerID int64) error {
	query := tx.Rebind(`INSERT INTO container_redirects (old_path, container_id)
			VALUES (?, ?);`)
	_, err := tx.ExecContext(ctx, query, oldPath, containerID)
	return err //nolint:wrapcheck
}

// SetContainerFork implements store.ContainerStore.
func (*containerStore) SetContainerFork(ctx context.Context, tx db.Handler, id int64, forkID int64) error {
	query := tx.Rebind(`UPDATE containers SET fork_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, forkID, id)
	return err //nolint:wrapcheck
}

// IncrementContainerFetch implements store.ContainerStore.
func (*containerStore) IncrementContainerFetch(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`UPDATE containers
			SET fetch_count = fetch_count + 1, fetched_at = CURRENT_TIMESTAMP
			WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// FindDeployToken implements store.ContainerStore.
func (*containerStore) FindDeployToken(ctx context.Context, tx db.Handler, tokenHash string) (models.DeployToken, error) {
	var m models.DeployToken
	query := tx.Rebind(`SELECT * FROM deploy_tokens WHERE token = ?;`)
	err := tx.GetContext(ctx, &m, query, tokenHash)
	return m, err //nolint:wrapcheck
}

// CreateDeployToken implements store.ContainerStore.
func (*containerStore) CreateDeployToken(ctx context.Context, tx db.Handler, name, username string, containerID int64, tokenHash string, canWrite bool, expiresAt time.Time) (models.DeployToken, error) {
	var m models.DeployToken
	var query string
	values := []interface{}{name, username, containerID, tokenHash, canWrite}
	if expiresAt.IsZero() {
		query = `INSERT INTO deploy_tokens (name, username, container_id, token, can_write)
			VALUES (?, ?, ?, ?, ?) RETURNING *;`
	} else {
		query = `INSERT INTO deploy_tokens (name, username, container_id, token, can_write, expires_at)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING *;`
		values = append(values, expiresAt)
	}

	err := tx.GetContext(ctx, &m, tx.Rebind(query), values...)
	return m, err //nolint:wrapcheck
}

// GetCollaborator implements store.ContainerStore.
func (*containerStore) GetCollaborator(ctx context.Context, tx db.Handler, containerID, userID int64) (models.Collaborator, error) {
	var m models.Collaborator
	query := tx.Rebind(`SELECT * FROM collaborators WHERE container_id = ? AND user_id = ?;`)
	err := tx.GetContext(ctx, &m, query, containerID, userID)
	return m, err //nolint:wrapcheck
}

// AddCollaborator implements store.ContainerStore.
func (*containerStore) AddCollaborator(ctx context.Context, tx db.Handler, containerID, userID int64, level string) error {
	query := tx.Rebind(`INSERT INTO collaborators (container_id, user_id, level, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, containerID, userID, level)
	return err //nolint:wrapcheck
}

// RemoveCollaborator implements store.ContainerStore.
func (*containerStore) RemoveCollaborator(ctx context.Context, tx db.Handler, containerID, userID int64) error {
	query := tx.Rebind(`DELETE FROM collaborators WHERE container_id = ? AND user_id = ?;`)
	_, err := tx.ExecContext(ctx, query, containerID, userID)
	return err //nolint:wrapcheck
}
