package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/matryer/is"
)

func TestLFSObjectLifecycle(t *testing.T) {
	is := is.New(t)
	ctx, dbx, s := openTestStore(t)
	u := createTestUser(t, ctx, dbx, s, "alice")
	c := createTestContainer(t, ctx, dbx, s, "alice/project", u.ID)

	oid := strings.Repeat("ab", 32)
	obj, err := s.CreateLFSObject(ctx, dbx, oid, 42)
	is.NoErr(err)
	is.Equal(obj.Oid, oid)
	is.True(!obj.Stored)

	// Not linked yet.
	_, err = s.GetLinkedLFSObject(ctx, dbx, c.ID, oid)
	is.True(errors.Is(db.WrapError(err), db.ErrRecordNotFound))

	is.NoErr(s.LinkLFSObject(ctx, dbx, obj.ID, c.ID))
	// Linking twice converges on one row.
	is.NoErr(s.LinkLFSObject(ctx, dbx, obj.ID, c.ID))

	got, err := s.GetLinkedLFSObject(ctx, dbx, c.ID, oid)
	is.NoErr(err)
	is.Equal(got.ID, obj.ID)
	is.Equal(got.Size, int64(42))

	is.NoErr(s.SetLFSObjectStored(ctx, dbx, obj.ID, true))
	got, err = s.GetLFSObjectByOid(ctx, dbx, oid)
	is.NoErr(err)
	is.True(got.Stored)
}

func TestLFSObjectOidUnique(t *testing.T) {
	is := is.New(t)
	ctx, dbx, s := openTestStore(t)

	oid := strings.Repeat("cd", 32)
	_, err := s.CreateLFSObject(ctx, dbx, oid, 1)
	is.NoErr(err)

	_, err = s.CreateLFSObject(ctx, dbx, oid, 1)
	is.True(errors.Is(db.WrapError(err), db.ErrDuplicateKey))
}

func TestLFSLockLifecycle(t *testing.T) {
	is := is.New(t)
	ctx, dbx, s := openTestStore(t)
	u := createTestUser(t, ctx, dbx, s, "alice")
	c := createTestContainer(t, ctx, dbx, s, "alice/project", u.ID)

	lock, err := s.CreateLFSLock(ctx, dbx, c.ID, u.ID, "assets/logo.png", "refs/heads/main")
	is.NoErr(err)
	is.Equal(lock.Path, "assets/logo.png")

	// One lock per path per container.
	_, err = s.CreateLFSLock(ctx, dbx, c.ID, u.ID, "assets/logo.png", "")
	is.True(errors.Is(db.WrapError(err), db.ErrDuplicateKey))

	byID, err := s.GetLFSLockByID(ctx, dbx, lock.ID)
	is.NoErr(err)
	is.Equal(byID.Username, "alice")

	byPath, err := s.GetLFSLockForPath(ctx, dbx, c.ID, "assets/logo.png")
	is.NoErr(err)
	is.Equal(byPath.ID, lock.ID)

	is.NoErr(s.DeleteLFSLock(ctx, dbx, lock.ID))
	_, err = s.GetLFSLockByID(ctx, dbx, lock.ID)
	is.True(errors.Is(db.WrapError(err), db.ErrRecordNotFound))
}

func TestLFSLockListCursor(t *testing.T) {
	is := is.New(t)
	ctx, dbx, s := openTestStore(t)
	u := createTestUser(t, ctx, dbx, s, "alice")
	c := createTestContainer(t, ctx, dbx, s, "alice/project", u.ID)

	for _, p := range []string{"a.bin", "b.bin", "c.bin"} {
		_, err := s.CreateLFSLock(ctx, dbx, c.ID, u.ID, p, "")
		is.NoErr(err)
	}

	locks, err := s.ListLFSLocks(ctx, dbx, c.ID, "", 0, 2)
	is.NoErr(err)
	is.Equal(len(locks), 2)
	is.Equal(locks[0].Path, "a.bin")

	// The cursor is the last seen lock id.
	rest, err := s.ListLFSLocks(ctx, dbx, c.ID, "", int(locks[1].ID), 2)
	is.NoErr(err)
	is.Equal(len(rest), 1)
	is.Equal(rest[0].Path, "c.bin")

	byPath, err := s.ListLFSLocks(ctx, dbx, c.ID, "b.bin", 0, 0)
	is.NoErr(err)
	is.Equal(len(byPath), 1)
	is.Equal(byPath[0].Path, "b.bin")
}

func TestLFSLockScopedToContainer(t *testing.T) {
	is := is.New(t)
	ctx, dbx, s := openTestStore(t)
	u := createTestUser(t, ctx, dbx, s, "alice")
	c1 := createTestContainer(t, ctx, dbx, s, "alice/one", u.ID)
	c2 := createTestContainer(t, ctx, dbx, s, "alice/two", u.ID)

	// The same path can be locked independently in different containers.
	_, err := s.CreateLFSLock(ctx, dbx, c1.ID, u.ID, "a.bin", "")
	is.NoErr(err)
	_, err = s.CreateLFSLock(ctx, dbx, c2.ID, u.ID, "a.bin", "")
	is.NoErr(err)

	locks, err := s.ListLFSLocks(ctx, dbx, c1.ID, "", 0, 0)
	is.NoErr(err)
	is.Equal(len(locks), 1)
}
