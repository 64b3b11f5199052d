package models

import "time"

// LFSObject is a content-addressed Git LFS object. Objects are global, a
// container can serve an object once a link row exists for the pair.
type LFSObject struct {
	ID        int64     `db:"id"`
	Oid       string    `db:"oid"`
	Size      int64     `db:"size"`
	Stored    bool      `db:"stored"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LFSObjectLink associates an LFSObject with a container.
type LFSObjectLink struct {
	ID          int64     `db:"id"`
	ObjectID    int64     `db:"object_id"`
	ContainerID int64     `db:"container_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// LFSLock is a Git LFS path lock.
type LFSLock struct {
	ID          int64     `db:"id"`
	ContainerID int64     `db:"container_id"`
	UserID      int64     `db:"user_id"`
	Path        string    `db:"path"`
	Refname     string    `db:"refname"`
	CreatedAt   time.Time `db:"created_at"`
}

// LFSLockWithOwner is an LFSLock joined with its owner's username.
type LFSLockWithOwner struct {
	LFSLock
	Username string `db:"username"`
}
