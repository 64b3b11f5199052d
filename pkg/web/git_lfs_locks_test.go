package web

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/matryer/is"
)

func locksPath(container string) string {
	return "/" + container + ".git/info/lfs/locks"
}

func TestLfsLockCreate(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{
		Path: "assets/logo.png",
	}, withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)

	lr := decodeJSON[lfs.LockResponse](t, resp)
	is.Equal(lr.Lock.Path, "assets/logo.png")
	is.Equal(lr.Lock.Owner.Name, "alice")
	is.True(lr.Lock.ID != "")
	is.True(!lr.Lock.LockedAt.IsZero())
}

func TestLfsLockCreateConflict(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	bob := e.createUser(t, "bob", "hunter2", false)
	c := e.createContainer(t, "alice/project", alice, false)
	is.NoErr(e.be.AddCollaborator(e.ctx, c, bob.Username(), access.ReadWriteAccess))

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{
		Path: "assets/logo.png",
	}, withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)
	created := decodeJSON[lfs.LockResponse](t, resp)

	// The conflict response carries the existing lock.
	resp = e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{
		Path: "assets/logo.png",
	}, withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusConflict)

	conflict := decodeJSON[lfs.LockResponse](t, resp)
	is.Equal(conflict.Lock.ID, created.Lock.ID)
	is.Equal(conflict.Lock.Owner.Name, "alice")
	is.True(conflict.Message != "")
}

func TestLfsLockCreateRequiresWrite(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createUser(t, "bob", "hunter2", false)
	e.createContainer(t, "alice/project", alice, false)

	// bob can read the public container but holds no write access.
	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{
		Path: "assets/logo.png",
	}, withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusForbidden)
}

func TestLfsLockCreateEmptyPath(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusUnprocessableEntity)
}

func TestLfsLockList(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	for _, p := range []string{"a.bin", "b.bin", "c.bin"} {
		resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: p},
			withBasicAuth("alice", "secret"))
		is.Equal(resp.StatusCode, http.StatusCreated)
	}

	resp := e.lfsRequest(t, http.MethodGet, locksPath("alice/project"), nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
	list := decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(list.Locks), 3)
	is.Equal(list.NextCursor, "")

	// Filter by path.
	resp = e.lfsRequest(t, http.MethodGet, locksPath("alice/project")+"?path=b.bin", nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
	list = decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(list.Locks), 1)
	is.Equal(list.Locks[0].Path, "b.bin")

	// Filter by id.
	resp = e.lfsRequest(t, http.MethodGet, locksPath("alice/project")+"?id="+list.Locks[0].ID, nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
	list = decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(list.Locks), 1)
	is.Equal(list.Locks[0].Path, "b.bin")

	// Unknown id.
	resp = e.lfsRequest(t, http.MethodGet, locksPath("alice/project")+"?id=99999", nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestLfsLockListPagination(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	for _, p := range []string{"a.bin", "b.bin", "c.bin"} {
		resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: p},
			withBasicAuth("alice", "secret"))
		is.Equal(resp.StatusCode, http.StatusCreated)
	}

	resp := e.lfsRequest(t, http.MethodGet, locksPath("alice/project")+"?limit=2", nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
	page := decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(page.Locks), 2)
	is.True(page.NextCursor != "")

	resp = e.lfsRequest(t, http.MethodGet, locksPath("alice/project")+"?limit=2&cursor="+page.NextCursor, nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
	rest := decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(rest.Locks), 1)
	is.Equal(rest.Locks[0].Path, "c.bin")
}

func TestLfsLockVerifyPartition(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	bob := e.createUser(t, "bob", "hunter2", false)
	c := e.createContainer(t, "alice/project", alice, false)
	is.NoErr(e.be.AddCollaborator(e.ctx, c, bob.Username(), access.ReadWriteAccess))

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: "ours.bin"},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)
	resp = e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: "theirs.bin"},
		withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusCreated)

	resp = e.lfsRequest(t, http.MethodPost, locksPath("alice/project")+"/verify", lfs.LockVerifyRequest{},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)

	vr := decodeJSON[lfs.LockVerifyResponse](t, resp)
	is.Equal(len(vr.Ours), 1)
	is.Equal(vr.Ours[0].Path, "ours.bin")
	is.Equal(len(vr.Theirs), 1)
	is.Equal(vr.Theirs[0].Path, "theirs.bin")
}

func TestLfsLockUnlockOwner(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: "a.bin"},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)
	created := decodeJSON[lfs.LockResponse](t, resp)

	resp = e.lfsRequest(t, http.MethodPost,
		fmt.Sprintf("%s/%s/unlock", locksPath("alice/project"), created.Lock.ID),
		lfs.LockDeleteRequest{}, withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)

	deleted := decodeJSON[lfs.LockResponse](t, resp)
	is.Equal(deleted.Lock.ID, created.Lock.ID)

	resp = e.lfsRequest(t, http.MethodGet, locksPath("alice/project"), nil,
		withBasicAuth("alice", "secret"))
	list := decodeJSON[lfs.LockListResponse](t, resp)
	is.Equal(len(list.Locks), 0)
}

func TestLfsLockUnlockMissing(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	// A missing lock is a plain 404 without a lock payload.
	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project")+"/12345/unlock",
		lfs.LockDeleteRequest{}, withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusNotFound)

	lr := decodeJSON[lfs.LockResponse](t, resp)
	is.Equal(lr.Lock.ID, "")
}

func TestLfsLockUnlockForeign(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	bob := e.createUser(t, "bob", "hunter2", false)
	carol := e.createUser(t, "carol", "letmein", true)
	c := e.createContainer(t, "alice/project", alice, false)
	is.NoErr(e.be.AddCollaborator(e.ctx, c, bob.Username(), access.ReadWriteAccess))

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: "a.bin"},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)
	created := decodeJSON[lfs.LockResponse](t, resp)
	unlockPath := fmt.Sprintf("%s/%s/unlock", locksPath("alice/project"), created.Lock.ID)

	// Someone else's lock comes back embedded in the 403.
	resp = e.lfsRequest(t, http.MethodPost, unlockPath, lfs.LockDeleteRequest{},
		withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusForbidden)
	denied := decodeJSON[lfs.LockResponse](t, resp)
	is.Equal(denied.Lock.ID, created.Lock.ID)
	is.Equal(denied.Lock.Owner.Name, "alice")

	// Force needs more than write access.
	resp = e.lfsRequest(t, http.MethodPost, unlockPath, lfs.LockDeleteRequest{Force: true},
		withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusForbidden)

	// An admin may force the release.
	resp = e.lfsRequest(t, http.MethodPost, unlockPath, lfs.LockDeleteRequest{Force: true},
		withBasicAuth(carol.Username(), "letmein"))
	is.Equal(resp.StatusCode, http.StatusOK)
}

func TestLfsLockIDsAreNumeric(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.lfsRequest(t, http.MethodPost, locksPath("alice/project"), lfs.LockCreateRequest{Path: "a.bin"},
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusCreated)

	lr := decodeJSON[lfs.LockResponse](t, resp)
	_, err := strconv.ParseInt(lr.Lock.ID, 10, 64)
	is.NoErr(err)
}
