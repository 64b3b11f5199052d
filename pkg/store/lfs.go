package store

import (
	"context"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
)

// LFSStore is an interface for managing LFS objects, their container links,
// and path locks.
type LFSStore interface {
	GetLFSObjectByOid(ctx context.Context, h db.Handler, oid string) (models.LFSObject, error)
	GetLinkedLFSObject(ctx context.Context, h db.Handler, containerID int64, oid string) (models.LFSObject, error)
	CreateLFSObject(ctx context.Context, h db.Handler, oid string, size int64) (models.LFSObject, error)
	SetLFSObjectStored(ctx context.Context, h db.Handler, id int64, stored bool) error
	LinkLFSObject(ctx context.Context, h db.Handler, objectID, containerID int64) error

	CreateLFSLock(ctx context.Context, h db.Handler, containerID, userID int64, path, refname string) (models.LFSLock, error)
	GetLFSLockByID(ctx context.Context, h db.Handler, id int64) (models.LFSLockWithOwner, error)
	GetLFSLockForPath(ctx context.Context, h db.Handler, containerID int64, path string) (models.LFSLockWithOwner, error)
	ListLFSLocks(ctx context.Context, h db.Handler, containerID int64, path string, cursor, limit int) ([]models.LFSLockWithOwner, error)
	DeleteLFSLock(ctx context.Context, h db.Handler, id int64) error
}
