package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/gorilla/mux"
)

// https://github.com/git-lfs/git-lfs/blob/main/docs/api/locking.md

func toLfsLock(l models.LFSLockWithOwner) lfs.Lock {
	return lfs.Lock{
		ID:       strconv.FormatInt(l.ID, 10),
		Path:     l.Path,
		LockedAt: l.CreatedAt,
		Owner: lfs.Owner{
			Name: l.Username,
		},
	}
}

func serviceLfsLocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		serviceLfsLocksList(w, r)
	case http.MethodPost:
		serviceLfsLocksCreate(w, r)
	default:
		renderMethodNotAllowed(w, r)
	}
}

// POST: /<container>.git/info/lfs/locks.
func serviceLfsLocksCreate(w http.ResponseWriter, r *http.Request) {
	if !isLfs(r) {
		renderNotAcceptable(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.lfs-locks")

	var req lfs.LockCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("error decoding json", "err", err)
		renderJSON(w, http.StatusBadRequest, lfsError(r, "invalid request: "+err.Error()))
		return
	}

	if req.Path == "" {
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "invalid path"))
		return
	}

	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, "container not found"))
		return
	}

	// Locks are owned, a deploy token cannot take one.
	user := proto.UserFromContext(ctx)
	if user == nil {
		renderJSON(w, http.StatusForbidden, lfsError(r, "lock owner required"))
		return
	}

	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	lock, err := datastore.CreateLFSLock(ctx, dbx, c.ID(), user.ID(), req.Path, req.Ref.Name)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			errResp := lfs.LockResponse{
				ErrorResponse: lfsError(r, "lock already exists"),
			}
			// The conflict response carries the existing lock.
			existing, err := datastore.GetLFSLockForPath(ctx, dbx, c.ID(), req.Path)
			if err == nil {
				errResp.Lock = toLfsLock(existing)
			}
			renderJSON(w, http.StatusConflict, errResp)
			return
		}
		logger.Error("error creating lock", "err", err)
		renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
		return
	}

	renderJSON(w, http.StatusCreated, lfs.LockResponse{
		Lock: lfs.Lock{
			ID:       strconv.FormatInt(lock.ID, 10),
			Path:     lock.Path,
			LockedAt: lock.CreatedAt,
			Owner: lfs.Owner{
				Name: user.Username(),
			},
		},
	})
}

// GET: /<container>.git/info/lfs/locks.
func serviceLfsLocksList(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if !strings.HasPrefix(accept, lfs.MediaType) {
		renderNotAcceptable(w)
		return
	}

	parseLocksQuery := func(values url.Values) (path string, id int64, cursor int, limit int, refspec string) {
		path = values.Get("path")
		idStr := values.Get("id")
		if idStr != "" {
			id, _ = strconv.ParseInt(idStr, 10, 64)
		}
		cursorStr := values.Get("cursor")
		if cursorStr != "" {
			cursor, _ = strconv.Atoi(cursorStr)
		}
		limitStr := values.Get("limit")
		if limitStr != "" {
			limit, _ = strconv.Atoi(limitStr)
		}
		refspec = values.Get("refspec")
		return
	}

	ctx := r.Context()
	// TODO: respect refspec
	path, id, cursor, limit, _ := parseLocksQuery(r.URL.Query())
	if limit > 100 {
		limit = 100
	} else if limit <= 0 {
		limit = lfs.DefaultLocksLimit
	}

	logger := log.FromContext(ctx).WithPrefix("http.lfs-locks")
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, "container not found"))
		return
	}

	if id > 0 {
		lock, err := datastore.GetLFSLockByID(ctx, dbx, id)
		if err != nil || lock.ContainerID != c.ID() {
			if err != nil && !errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
				logger.Error("error getting lock", "err", err)
				renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
				return
			}
			renderJSON(w, http.StatusNotFound, lfsError(r, "lock not found"))
			return
		}

		renderJSON(w, http.StatusOK, lfs.LockListResponse{
			Locks: []lfs.Lock{toLfsLock(lock)},
		})
		return
	}

	locks, err := datastore.ListLFSLocks(ctx, dbx, c.ID(), path, cursor, limit)
	if err != nil {
		logger.Error("error getting locks", "err", err)
		renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
		return
	}

	lockList := make([]lfs.Lock, len(locks))
	for i, lock := range locks {
		lockList[i] = toLfsLock(lock)
	}

	resp := lfs.LockListResponse{
		Locks: lockList,
	}
	if len(locks) == limit {
		resp.NextCursor = strconv.FormatInt(locks[len(locks)-1].ID, 10)
	}

	renderJSON(w, http.StatusOK, resp)
}

// POST: /<container>.git/info/lfs/locks/verify.
func serviceLfsLocksVerify(w http.ResponseWriter, r *http.Request) {
	if !isLfs(r) {
		renderNotAcceptable(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.lfs-locks")
	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, "container not found"))
		return
	}

	var req lfs.LockVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("error decoding request", "err", err)
		renderJSON(w, http.StatusBadRequest, lfsError(r, "invalid request: "+err.Error()))
		return
	}

	// TODO: refspec
	cursor, _ := strconv.Atoi(req.Cursor)
	if cursor < 0 {
		cursor = 0
	}

	limit := req.Limit
	if limit > 100 {
		limit = 100
	} else if limit <= 0 {
		limit = lfs.DefaultLocksLimit
	}

	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	user := proto.UserFromContext(ctx)
	ours := make([]lfs.Lock, 0)
	theirs := make([]lfs.Lock, 0)

	locks, err := datastore.ListLFSLocks(ctx, dbx, c.ID(), "", cursor, limit)
	if err != nil {
		logger.Error("error getting locks", "err", err)
		renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
		return
	}

	for _, lock := range locks {
		l := toLfsLock(lock)
		if user != nil && user.ID() == lock.UserID {
			ours = append(ours, l)
		} else {
			theirs = append(theirs, l)
		}
	}

	var resp lfs.LockVerifyResponse
	resp.Ours = ours
	resp.Theirs = theirs

	if len(locks) == limit {
		resp.NextCursor = strconv.FormatInt(locks[len(locks)-1].ID, 10)
	}

	renderJSON(w, http.StatusOK, resp)
}

// POST: /<container>.git/info/lfs/locks/:lock_id/unlock.
func serviceLfsLocksDelete(w http.ResponseWriter, r *http.Request) {
	if !isLfs(r) {
		renderNotAcceptable(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.lfs-locks")
	lockID, err := strconv.ParseInt(mux.Vars(r)["lock_id"], 10, 64)
	if err != nil {
		logger.Error("error parsing lock id", "err", err)
		renderJSON(w, http.StatusBadRequest, lfsError(r, "invalid request"))
		return
	}

	var req lfs.LockDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("error decoding request", "err", err)
		renderJSON(w, http.StatusBadRequest, lfsError(r, "invalid request: "+err.Error()))
		return
	}

	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, "container not found"))
		return
	}

	user := proto.UserFromContext(ctx)
	if user == nil {
		renderJSON(w, http.StatusForbidden, lfsError(r, "lock owner required"))
		return
	}

	// A missing lock is a plain 404 with no lock payload. A lock the
	// caller may not release comes back embedded in the 403.
	lock, err := datastore.GetLFSLockByID(ctx, dbx, lockID)
	if err != nil || lock.ContainerID != c.ID() {
		if err != nil && !errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
			logger.Error("error getting lock", "err", err)
			renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
			return
		}
		renderJSON(w, http.StatusNotFound, lfsError(r, "lock not found"))
		return
	}

	l := toLfsLock(lock)

	if lock.UserID != user.ID() {
		if !req.Force {
			errResp := lfs.LockResponse{ErrorResponse: lfsError(r, "lock belongs to another user")}
			errResp.Lock = l
			renderJSON(w, http.StatusForbidden, errResp)
			return
		}

		be := backend.FromContext(ctx)
		result := auth.ResultFromContext(ctx)
		if result == nil || !result.Capabilities.Has(access.AbilityForceUnlock) ||
			be.Authorize(ctx, result.Identity, access.AbilityForceUnlock, c) != nil {
			errResp := lfs.LockResponse{ErrorResponse: lfsError(r, "lock belongs to another user")}
			errResp.Lock = l
			renderJSON(w, http.StatusForbidden, errResp)
			return
		}
	}

	if err := datastore.DeleteLFSLock(ctx, dbx, lockID); err != nil {
		logger.Error("error deleting lock", "err", err)
		renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
		return
	}

	renderJSON(w, http.StatusOK, lfs.LockResponse{Lock: l})
}
