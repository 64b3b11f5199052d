package database

import (
	"context"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/store"
)

type lfsStore struct{}

var _ store.LFSStore = (*lfsStore)(nil)

// GetLFSObjectByOid implements store.LFSStore.
func (*lfsStore) GetLFSObjectByOid(ctx context.Context, tx db.Handler, oid string) (models.LFSObject, error) {
	var m models.LFSObject
	query := tx.Rebind(`SELECT * FROM lfs_objects WHERE oid = ?;`)
	err := tx.GetContext(ctx, &m, query, oid)
	return m, err //nolint:wrapcheck
}

// GetLinkedLFSObject implements store.LFSStore.
func (*lfsStore) GetLinkedLFSObject(ctx context.Context, tx db.Handler, containerID int64, oid string) (models.LFSObject, error) {
	var m models.LFSObject
	query := tx.Rebind(`SELECT lfs_objects.*
			FROM lfs_objects
			INNER JOIN lfs_object_links ON lfs_object_links.object_id = lfs_objects.id
			WHERE lfs_object_links.container_id = ? AND lfs_objects.oid = ?;`)
	err := tx.GetContext(ctx, &m, query, containerID, oid)
	return m, err //nolint:wrapcheck
}

// CreateLFSObject implements store.LFSStore.
func (*lfsStore) CreateLFSObject(ctx context.Context, tx db.Handler, oid string, size int64) (models.LFSObject, error) {
	var m models.LFSObject
	query := tx.Rebind(`INSERT INTO lfs_objects (oid, size, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP) RETURNING *;`)
	err := tx.GetContext(ctx, &m, query, oid, size)
	return m, err //nolint:wrapcheck
}

// SetLFSObjectStored implements store.LFSStore.
func (*lfsStore) SetLFSObjectStored(ctx context.Context, tx db.Handler, id int64, stored bool) error {
	query := tx.Rebind(`UPDATE lfs_objects SET stored = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, stored, id)
	return err //nolint:wrapcheck
}

// LinkLFSObject implements store.LFSStore. The insert is a no-op when the
// link already exists so concurrent callers converge on one row.
func (*lfsStore) LinkLFSObject(ctx context.Context, tx db.Handler, objectID, containerID int64) error {
	query := tx.Rebind(`INSERT INTO lfs_object_links (object_id, container_id)
			VALUES (?, ?)
			ON CONFLICT (object_id, container_id) DO NOTHING;`)
	_, err := tx.ExecContext(ctx, query, objectID, containerID)
	return err //nolint:wrapcheck
}

// CreateLFSLock implements store.LFSStore.
func (*lfsStore) CreateLFSLock(ctx context.Context, tx db.Handler, containerID, userID int64, path, refname string) (models.LFSLock, error) {
	var m models.LFSLock
	query := tx.Rebind(`INSERT INTO lfs_locks (container_id, user_id, path, refname)
			VALUES (?, ?, ?, ?) RETURNING *;`)
	err := tx.GetContext(ctx, &m, query, containerID, userID, path, refname)
	return m, err //nolint:wrapcheck
}

// GetLFSLockByID implements store.LFSStore.
func (*lfsStore) GetLFSLockByID(ctx context.Context, tx db.Handler, id int64) (models.LFSLockWithOwner, error) {
	var m models.LFSLockWithOwner
	query := tx.Rebind(`SELECT lfs_locks.*, users.username
			FROM lfs_locks
			INNER JOIN users ON users.id = lfs_locks.user_id
			WHERE lfs_locks.id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// GetLFSLockForPath implements store.LFSStore.
func (*lfsStore) GetLFSLockForPath(ctx context.Context, tx db.Handler, containerID int64, path string) (models.LFSLockWithOwner, error) {
	var m models.LFSLockWithOwner
	query := tx.Rebind(`SELECT lfs_locks.*, users.username
			FROM lfs_locks
			INNER JOIN users ON users.id = lfs_locks.user_id
			WHERE lfs_locks.container_id = ? AND lfs_locks.path = ?;`)
	err := tx.GetContext(ctx, &m, query, containerID, path)
	return m, err //nolint:wrapcheck
}

// ListLFSLocks implements store.LFSStore. Locks are returned in creation
// order. The cursor is the lock id to start after.
func (*lfsStore) ListLFSLocks(ctx context.Context, tx db.Handler, containerID int64, path string, cursor, limit int) ([]models.LFSLockWithOwner, error) {
	var ms []models.LFSLockWithOwner
	query := `SELECT lfs_locks.*, users.username
			FROM lfs_locks
			INNER JOIN users ON users.id = lfs_locks.user_id
			WHERE lfs_locks.container_id = ? AND lfs_locks.id > ?`
	values := []interface{}{containerID, cursor}
	if path != "" {
		query += ` AND lfs_locks.path = ?`
		values = append(values, path)
	}
	query += ` ORDER BY lfs_locks.id`
	if limit > 0 {
		query += ` LIMIT ?`
		values = append(values, limit)
	}
	query += `;`

	err := tx.SelectContext(ctx, &ms, tx.Rebind(query), values...)
	return ms, err //nolint:wrapcheck
}

// DeleteLFSLock implements store.LFSStore.
func (*lfsStore) DeleteLFSLock(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`DELETE FROM lfs_locks WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}
