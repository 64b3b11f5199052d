package web

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/storage"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// lfsDocURL is advertised in error payloads.
	lfsDocURL = "https://github.com/git-lfs/git-lfs/blob/main/docs/api"

	// msgObjectAccess deliberately does not distinguish a missing object
	// from one the caller may not read.
	msgObjectAccess = "Object does not exist on the server or you don't have permissions to access it"

	// msgReadOnly rejects upload batches while the backing store is in
	// read-only maintenance mode.
	msgReadOnly = "You cannot write to this read-only instance."

	// msgLegacyAPI answers pre-batch-API clients.
	msgLegacyAPI = "Server supports batch API only, please update your Git LFS client to version 1.0.1 and up."
)

// authenticatedTrue marks object responses produced for an authorized
// request.
var authenticatedTrue = true

// serviceLfsBatch negotiates object transfers.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md
// POST: /<container>.git/info/lfs/objects/batch.
func serviceLfsBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.lfs")

	if !isLfs(r) {
		logger.Errorf("invalid content type: %s", r.Header.Get("Content-Type"))
		renderNotAcceptable(w)
		return
	}

	var batchRequest lfs.BatchRequest
	defer r.Body.Close() //nolint: errcheck
	if err := json.NewDecoder(r.Body).Decode(&batchRequest); err != nil {
		logger.Errorf("error decoding json: %s", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "validation error in request: "+err.Error()))
		return
	}

	// Only the basic transfer adapter is offered. An empty transfer list
	// defaults to basic.
	if len(batchRequest.Transfers) > 0 {
		var isBasic bool
		for _, t := range batchRequest.Transfers {
			if t == lfs.TransferBasic {
				isBasic = true
				break
			}
		}

		if !isBasic {
			renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "unsupported transfer"))
			return
		}
	}

	if batchRequest.Operation != lfs.OperationDownload && batchRequest.Operation != lfs.OperationUpload {
		renderJSON(w, http.StatusNotFound, lfsError(r, "unsupported operation"))
		return
	}

	if len(batchRequest.Objects) == 0 {
		renderJSON(w, http.StatusNotFound, lfsError(r, "no objects found"))
		return
	}

	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, "container not found"))
		return
	}

	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)

	if batchRequest.Operation == lfs.OperationUpload {
		result := auth.ResultFromContext(ctx)
		if result == nil || result.Scheme == auth.SchemeAnonymous {
			// Anonymous access covers downloads only. Challenge so the
			// client can prompt for credentials and retry.
			auth.FromContext(ctx).AskCredentials(w)
			renderJSON(w, http.StatusUnauthorized, lfsError(r, "credentials needed"))
			return
		}
		if !result.Capabilities.Has(access.AbilityPush) {
			renderJSON(w, http.StatusForbidden, lfsError(r, "write access required"))
			return
		}
		if err := be.Authorize(ctx, result.Identity, access.AbilityPush, c); err != nil {
			renderAccessError(w, r, err)
			return
		}

		// The read-only gate precedes all per-object work.
		if cfg.DB.ReadOnly {
			renderJSON(w, http.StatusForbidden, lfsError(r, msgReadOnly))
			return
		}
	}

	var batchResponse lfs.BatchResponse
	batchResponse.Transfer = lfs.TransferBasic
	batchResponse.HashAlgo = lfs.HashAlgorithmSHA256

	objects := make([]*lfs.ObjectResponse, 0, len(batchRequest.Objects))
	switch batchRequest.Operation {
	case lfs.OperationDownload:
		for _, o := range batchRequest.Objects {
			if !o.IsValid() {
				objects = append(objects, &lfs.ObjectResponse{
					Pointer: o,
					Error: &lfs.ObjectError{
						Code:    http.StatusUnprocessableEntity,
						Message: "invalid object",
					},
				})
				continue
			}

			obj, err := linkedObject(ctx, c, o.Oid)
			if err != nil && !errors.Is(err, db.ErrRecordNotFound) {
				logger.Error("error getting object from database", "oid", o.Oid, "path", c.Path(), "err", err)
				renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
				return
			}

			if err != nil || !obj.Stored || obj.Size != o.Size {
				objects = append(objects, &lfs.ObjectResponse{
					Pointer: o,
					Error: &lfs.ObjectError{
						Code:    http.StatusNotFound,
						Message: msgObjectAccess,
					},
				})
				continue
			}

			download, err := downloadLink(ctx, r, c, o)
			if err != nil {
				logger.Error("error building download action", "oid", o.Oid, "err", err)
				renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
				return
			}

			objects = append(objects, &lfs.ObjectResponse{
				Pointer:       o,
				Authenticated: &authenticatedTrue,
				Actions: map[string]*lfs.Link{
					lfs.ActionDownload: download,
				},
			})
		}
	case lfs.OperationUpload:
		for _, o := range batchRequest.Objects {
			if !o.IsValid() {
				objects = append(objects, &lfs.ObjectResponse{
					Pointer: o,
					Error: &lfs.ObjectError{
						Code:    http.StatusUnprocessableEntity,
						Message: "invalid object",
					},
				})
				continue
			}

			present, err := objectPresent(ctx, c, o)
			if err != nil {
				logger.Error("error getting object from database", "oid", o.Oid, "path", c.Path(), "err", err)
				renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
				return
			}

			if present {
				// Nothing to transfer, the container can already serve the
				// object.
				objects = append(objects, &lfs.ObjectResponse{
					Pointer:       o,
					Authenticated: &authenticatedTrue,
				})
				continue
			}

			upload, err := uploadLink(ctx, c, o)
			if err != nil {
				logger.Error("error building upload action", "oid", o.Oid, "err", err)
				renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
				return
			}

			objects = append(objects, &lfs.ObjectResponse{
				Pointer:       o,
				Authenticated: &authenticatedTrue,
				Actions: map[string]*lfs.Link{
					lfs.ActionUpload: upload,
				},
			})
		}
	}

	batchResponse.Objects = objects
	renderJSON(w, http.StatusOK, batchResponse)
}

// serviceLfsLegacy answers the pre-1.0 object API with a precise upgrade
// hint.
// POST: /<container>.git/info/lfs/objects.
func serviceLfsLegacy(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusNotImplemented, lfsError(r, msgLegacyAPI))
}

// linkedObject returns the object row, requiring a link between the object
// and the container.
func linkedObject(ctx context.Context, c proto.Container, oid string) (models.LFSObject, error) {
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	obj, err := datastore.GetLinkedLFSObject(ctx, dbx, c.ID(), oid)
	if err != nil {
		return models.LFSObject{}, db.WrapError(err)
	}
	return obj, nil
}

// objectPresent reports whether the container can already serve the
// object, linking it from the fork source when the caller may read the
// source.
func objectPresent(ctx context.Context, c proto.Container, o lfs.Pointer) (bool, error) {
	be := backend.FromContext(ctx)
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)

	obj, err := linkedObject(ctx, c, o.Oid)
	if err == nil {
		return obj.Stored && obj.Size == o.Size, nil
	}
	if !errors.Is(err, db.ErrRecordNotFound) {
		return false, err
	}

	forkID, ok := c.ForkID()
	if !ok {
		return false, nil
	}

	obj, err = datastore.GetLinkedLFSObject(ctx, dbx, forkID, o.Oid)
	if err != nil {
		if errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !obj.Stored || obj.Size != o.Size {
		return false, nil
	}

	source, err := be.ContainerByID(ctx, forkID)
	if err != nil {
		if errors.Is(err, proto.ErrContainerNotFound) {
			return false, nil
		}
		return false, err
	}

	identity := proto.IdentityFromContext(ctx)
	if err := be.Authorize(ctx, identity, access.AbilityDownload, source); err != nil {
		// The fork source is off limits, the client has to upload.
		return false, nil
	}

	if err := datastore.LinkLFSObject(ctx, dbx, obj.ID, c.ID()); err != nil {
		return false, err
	}
	return true, nil
}

// wirePath returns the path the container is addressed by on the wire,
// without the ".git" suffix.
func wirePath(c proto.Container) string {
	p := c.Path()
	if c.Kind() == models.ContainerKindWiki {
		p += ".wiki"
	}
	return p
}

// downloadLink builds the download action for an object, preferring a
// pre-signed bucket URL over proxying through the gateway.
func downloadLink(ctx context.Context, r *http.Request, c proto.Container, o lfs.Pointer) (*lfs.Link, error) {
	cfg := config.FromContext(ctx)
	strg := storage.FromContext(ctx)

	if signer, ok := strg.(storage.URLSigner); ok && !cfg.LFS.ProxyDownload {
		href, err := signer.SignedURL(ctx, objectPath(o.Oid), http.MethodGet, cfg.LFS.TokenExpiry)
		if err == nil {
			expiresIn := cfg.LFS.TokenExpiry
			return &lfs.Link{
				Href:      href,
				ExpiresIn: &expiresIn,
			}, nil
		}
		if !errors.Is(err, storage.ErrSignedURLsUnsupported) {
			return nil, err
		}
	}

	link := &lfs.Link{
		Href: fmt.Sprintf("%s/%s.git/gitlab-lfs/objects/%s", cfg.HTTP.PublicURL, wirePath(c), o.Oid),
	}
	authorization, expiresAt, err := mintAuthorization(ctx, c, lfs.OperationDownload)
	if err != nil {
		return nil, err
	}
	if authorization != "" {
		link.Header = map[string]string{"Authorization": authorization}
		link.ExpiresAt = expiresAt
	} else if header := r.Header.Get("Authorization"); header != "" {
		link.Header = map[string]string{"Authorization": header}
	}
	return link, nil
}

// uploadLink builds the upload action for an object.
func uploadLink(ctx context.Context, c proto.Container, o lfs.Pointer) (*lfs.Link, error) {
	cfg := config.FromContext(ctx)

	link := &lfs.Link{
		Href: fmt.Sprintf("%s/%s.git/gitlab-lfs/objects/%s/%d", cfg.HTTP.PublicURL, wirePath(c), o.Oid, o.Size),
		Header: map[string]string{
			// git-lfs derives Content-Type from the file otherwise, and
			// chunked transfer lets it stream without a known length.
			"Content-Type":      "application/octet-stream",
			"Transfer-Encoding": "chunked",
		},
	}
	authorization, expiresAt, err := mintAuthorization(ctx, c, lfs.OperationUpload)
	if err != nil {
		return nil, err
	}
	if authorization != "" {
		link.Header["Authorization"] = authorization
		link.ExpiresAt = expiresAt
	}
	return link, nil
}

// mintAuthorization mints a transfer credential for the request identity,
// carried back to the gateway as a Basic password on transfer endpoints.
func mintAuthorization(ctx context.Context, c proto.Container, operation string) (string, *time.Time, error) {
	tokens := lfstoken.FromContext(ctx)
	subject := auth.MintSubject(proto.IdentityFromContext(ctx))
	if tokens == nil || subject == "" {
		return "", nil, nil
	}

	signed, expiresAt, err := tokens.Mint(subject, c.Path(), operation)
	if err != nil {
		return "", nil, err
	}

	cred := base64.StdEncoding.EncodeToString([]byte("gitgate-lfs:" + signed))
	return "Basic " + cred, &expiresAt, nil
}

// objectPath returns the object's location in storage.
func objectPath(oid string) string {
	p := lfs.Pointer{Oid: oid}
	return path.Join("objects", p.RelativePath())
}

// serviceLfsDownload streams an object through the gateway.
// GET: /<container>.git/gitlab-lfs/objects/<oid>.
func serviceLfsDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oid := mux.Vars(r)["oid"]
	logger := log.FromContext(ctx).WithPrefix("http.lfs-transfer")
	strg := storage.FromContext(ctx)

	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, msgObjectAccess))
		return
	}

	obj, err := linkedObject(ctx, c, oid)
	if err != nil || !obj.Stored {
		if err != nil && !errors.Is(err, db.ErrRecordNotFound) {
			logger.Error("error getting object from database", "oid", oid, "err", err)
			renderJSON(w, http.StatusInternalServerError, lfsError(r, "internal server error"))
			return
		}
		renderJSON(w, http.StatusNotFound, lfsError(r, msgObjectAccess))
		return
	}

	f, err := strg.Open(ctx, objectPath(oid))
	if err != nil {
		logger.Error("error opening object", "oid", oid, "err", err)
		renderJSON(w, http.StatusNotFound, lfsError(r, msgObjectAccess))
		return
	}
	defer f.Close() //nolint: errcheck

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	if _, err := io.Copy(w, f); err != nil {
		logger.Error("error copying object to response", "oid", oid, "err", err)
		return
	}
}

// uploadAuthorization is handed to the transfer client before the object
// body is sent.
type uploadAuthorization struct {
	TempPath string `json:"TempPath"`
	LfsOid   string `json:"LfsOid"`
	LfsSize  int64  `json:"LfsSize"`
}

// serviceLfsUploadAuthorize acknowledges an upcoming object upload.
// POST: /<container>.git/gitlab-lfs/objects/<oid>/<size>/authorize.
func serviceLfsUploadAuthorize(w http.ResponseWriter, r *http.Request) {
	oid := mux.Vars(r)["oid"]
	size, err := strconv.ParseInt(mux.Vars(r)["size"], 10, 64)
	if err != nil {
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "invalid object size"))
		return
	}

	renderJSON(w, http.StatusOK, uploadAuthorization{
		TempPath: path.Join("tmp", oid),
		LfsOid:   oid,
		LfsSize:  size,
	})
}

// serviceLfsUploadFinalize stores the uploaded object and links it to the
// container. Re-sent uploads of an already stored object succeed without
// rewriting it.
// PUT: /<container>.git/gitlab-lfs/objects/<oid>/<size>.
func serviceLfsUploadFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.lfs-transfer")
	cfg := config.FromContext(ctx)
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	strg := storage.FromContext(ctx)

	oid := mux.Vars(r)["oid"]
	size, err := strconv.ParseInt(mux.Vars(r)["size"], 10, 64)
	if err != nil {
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "invalid object size"))
		return
	}

	c := proto.ContainerFromContext(ctx)
	if c == nil {
		renderJSON(w, http.StatusNotFound, lfsError(r, msgObjectAccess))
		return
	}

	if cfg.DB.ReadOnly {
		renderJSON(w, http.StatusForbidden, lfsError(r, msgReadOnly))
		return
	}

	defer r.Body.Close() //nolint: errcheck

	obj, err := datastore.GetLFSObjectByOid(ctx, dbx, oid)
	if err != nil && !errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
		logger.Error("error getting object from database", "oid", oid, "err", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "error processing object"))
		return
	}
	exists := err == nil

	if exists && obj.Stored {
		stored, err := strg.Exists(ctx, objectPath(oid))
		if err != nil {
			logger.Error("error checking object in storage", "oid", oid, "err", err)
			renderJSON(w, http.StatusForbidden, lfsError(r, "storage error"))
			return
		}
		if stored {
			// The client retries a whole batch after a partial failure,
			// objects already on the server are skipped.
			io.Copy(io.Discard, r.Body) //nolint: errcheck
			if err := linkUploaded(ctx, c, obj); err != nil {
				logger.Error("error linking object", "oid", oid, "err", err)
				renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "error processing object"))
				return
			}
			renderStatus(http.StatusOK)(w, nil)
			return
		}
		// The row claims the object is stored but the blob is gone,
		// re-ingest it.
	}

	tmpPath := path.Join("tmp", fmt.Sprintf("%s-%s", oid, uuid.NewString()))
	hasher := sha256.New()
	written, err := strg.Put(ctx, tmpPath, io.TeeReader(r.Body, hasher))
	if err != nil {
		logger.Error("error writing object", "oid", oid, "err", err)
		renderJSON(w, http.StatusForbidden, lfsError(r, "storage error"))
		return
	}

	if written != size || hex.EncodeToString(hasher.Sum(nil)) != oid {
		strg.Delete(ctx, tmpPath) //nolint: errcheck
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "uploaded content does not match the object"))
		return
	}

	if err := strg.Rename(ctx, tmpPath, objectPath(oid)); err != nil {
		logger.Error("error renaming object", "oid", oid, "err", err)
		renderJSON(w, http.StatusForbidden, lfsError(r, "storage error"))
		return
	}

	if !exists {
		obj, err = datastore.CreateLFSObject(ctx, dbx, oid, size)
		if err != nil && errors.Is(db.WrapError(err), db.ErrDuplicateKey) {
			// A concurrent upload of the same object won the insert; its
			// row serves this request just as well.
			obj, err = datastore.GetLFSObjectByOid(ctx, dbx, oid)
		}
		if err != nil {
			logger.Error("error creating object", "oid", oid, "err", err)
			renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "error processing object"))
			return
		}
	}

	if err := datastore.SetLFSObjectStored(ctx, dbx, obj.ID, true); err != nil {
		logger.Error("error marking object stored", "oid", oid, "err", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "error processing object"))
		return
	}

	if err := linkUploaded(ctx, c, obj); err != nil {
		logger.Error("error linking object", "oid", oid, "err", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfsError(r, "error processing object"))
		return
	}

	renderStatus(http.StatusOK)(w, nil)
}

func linkUploaded(ctx context.Context, c proto.Container, obj models.LFSObject) error {
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	return datastore.LinkLFSObject(ctx, dbx, obj.ID, c.ID())
}

// lfsError builds the standard LFS error payload.
func lfsError(r *http.Request, msg string) lfs.ErrorResponse {
	return lfs.ErrorResponse{
		Message:          msg,
		DocumentationURL: lfsDocURL,
		RequestID:        requestID(r),
	}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// renderJSON renders a JSON response with the given status code and value. It
// also sets the Content-Type header to the JSON LFS media type (application/vnd.git-lfs+json).
func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	hdrLfs(w)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

func renderNotAcceptable(w http.ResponseWriter) {
	renderStatus(http.StatusNotAcceptable)(w, nil)
}

func isLfs(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	accept := r.Header.Get("Accept")
	return strings.HasPrefix(contentType, lfs.MediaType) && strings.HasPrefix(accept, lfs.MediaType)
}

func hdrLfs(w http.ResponseWriter) {
	w.Header().Set("Content-Type", lfs.MediaType)
	w.Header().Set("Accept", lfs.MediaType)
}
