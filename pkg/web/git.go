package web

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/git"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/utils"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GitRoute is a route for git services.
type GitRoute struct {
	method  []string
	handler http.HandlerFunc
	path    string
}

var _ http.Handler = GitRoute{}

// ServeHTTP implements http.Handler. The method check runs before
// authentication so that unsupported methods never trigger a credential
// exchange.
func (g GitRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var hasMethod bool
	for _, m := range g.method {
		if m == r.Method {
			hasMethod = true
			break
		}
	}

	if !hasMethod {
		renderMethodNotAllowed(w, r)
		return
	}

	withAccess(g.handler)(w, r)
}

var (
	//nolint:revive
	gitHttpReceiveCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitgate",
		Subsystem: "http",
		Name:      "git_receive_pack_total",
		Help:      "The total number of git push requests",
	}, []string{"container"})

	//nolint:revive
	gitHttpUploadCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitgate",
		Subsystem: "http",
		Name:      "git_upload_pack_total",
		Help:      "The total number of git fetch/pull requests",
	}, []string{"container", "file"})
)

func withParams(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cfg := config.FromContext(ctx)
		be := backend.FromContext(ctx)
		vars := mux.Vars(r)
		rawPath := vars["container"]

		// Construct "file" param from path
		vars["file"] = strings.TrimPrefix(r.URL.Path, "/"+rawPath+"/")

		// Set service type
		switch {
		case strings.HasSuffix(r.URL.Path, git.UploadPackService.String()):
			vars["service"] = git.UploadPackService.String()
		case strings.HasSuffix(r.URL.Path, git.ReceivePackService.String()):
			vars["service"] = git.ReceivePackService.String()
		}

		cleaned := utils.SanitizeContainerPath(rawPath)
		vars["container"] = cleaned

		// Resolve the container once. Absence is not an error here, a push
		// may create the container on the fly.
		c, _ := be.ContainerByPath(ctx, rawPath)
		ctx = proto.WithContainerContext(ctx, c)

		if c != nil {
			vars["dir"] = be.RepoPath(c)
		} else {
			vars["dir"] = filepath.Join(cfg.ReposPath(), cleaned+".git")
		}

		r = mux.SetURLVars(r.WithContext(ctx), vars)
		h.ServeHTTP(w, r)
	})
}

// GitController is a router for git services.
func GitController(_ context.Context, r *mux.Router) {
	basePrefix := "/{container:.*}"
	for _, route := range gitRoutes {
		// NOTE: withParams must always be the outermost wrapper, otherwise
		// the request vars will not be set.
		r.Handle(basePrefix+route.path, withParams(route))
	}
}

var gitRoutes = []GitRoute{
	// Git services
	// These routes don't handle authentication/authorization.
	// This is handled through wrapping the handlers for each route.
	{
		method:  []string{http.MethodPost},
		handler: serviceRpc,
		path:    "/{service:(?:git-upload-pack|git-receive-pack)$}",
	},
	{
		method:  []string{http.MethodGet},
		handler: getInfoRefs,
		path:    "/info/refs",
	},
	{
		method:  []string{http.MethodGet},
		handler: getTextFile,
		path:    "/{_:(?:HEAD|objects/info/alternates|objects/info/http-alternates|objects/info/[^/]*)$}",
	},
	{
		method:  []string{http.MethodGet},
		handler: getInfoPacks,
		path:    "/objects/info/packs",
	},
	{
		method:  []string{http.MethodGet},
		handler: getLooseObject,
		path:    "/objects/{_:[0-9a-f]{2}/[0-9a-f]{38}$}",
	},
	{
		method:  []string{http.MethodGet},
		handler: getPackFile,
		path:    "/objects/pack/{_:pack-[0-9a-f]{40}\\.pack$}",
	},
	{
		method:  []string{http.MethodGet},
		handler: getIdxFile,
		path:    "/objects/pack/{_:pack-[0-9a-f]{40}\\.idx$}",
	},
	// Git LFS
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsBatch,
		path:    "/info/lfs/objects/batch",
	},
	{
		// Legacy API endpoint. Kept so pre-1.0 clients get a precise error
		// instead of a generic 404.
		method:  []string{http.MethodPost},
		handler: serviceLfsLegacy,
		path:    "/info/lfs/objects",
	},
	{
		method:  []string{http.MethodGet},
		handler: serviceLfsDownload,
		path:    "/gitlab-lfs/objects/{oid:[0-9a-f]{64}$}",
	},
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsUploadAuthorize,
		path:    "/gitlab-lfs/objects/{oid:[0-9a-f]{64}}/{size:[0-9]+}/authorize",
	},
	{
		method:  []string{http.MethodPut},
		handler: serviceLfsUploadFinalize,
		path:    "/gitlab-lfs/objects/{oid:[0-9a-f]{64}}/{size:[0-9]+$}",
	},
	// Git LFS locks
	{
		method:  []string{http.MethodPost, http.MethodGet},
		handler: serviceLfsLocks,
		path:    "/info/lfs/locks",
	},
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsLocksVerify,
		path:    "/info/lfs/locks/verify",
	},
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsLocksDelete,
		path:    "/info/lfs/locks/{lock_id:[0-9]+}/unlock",
	},
}

// requestedAbility maps the route being accessed to the ability it needs.
// A batch request's operation lives in its body, so the gate checks
// download here and the batch handler re-checks push for uploads.
func requestedAbility(r *http.Request) access.Ability {
	vars := mux.Vars(r)
	file := vars["file"]

	// The info/refs handshake names its service in the query string, not
	// the path.
	service := git.Service(vars["service"])
	if service == "" {
		service = getServiceType(r)
	}

	switch {
	case service == git.ReceivePackService:
		return access.AbilityPush
	case strings.HasPrefix(file, "info/lfs/locks") && r.Method == http.MethodPost:
		// Creating, verifying, and releasing locks needs write access.
		// https://github.com/git-lfs/git-lfs/blob/main/docs/api/locking.md
		return access.AbilityPush
	case strings.HasPrefix(file, "gitlab-lfs/") && r.Method != http.MethodGet:
		return access.AbilityPush
	default:
		return access.AbilityDownload
	}
}

// isLfsPath reports whether the request addresses an LFS endpoint and its
// errors must be JSON.
func isLfsPath(r *http.Request) bool {
	file := mux.Vars(r)["file"]
	return strings.HasPrefix(file, "info/lfs") || strings.HasPrefix(file, "gitlab-lfs")
}

func renderAccessError(w http.ResponseWriter, r *http.Request, err error) {
	lfsErr := isLfsPath(r)
	status := http.StatusForbidden
	switch {
	case errors.Is(err, access.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, access.ErrUnprocessable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, access.ErrTimeout):
		status = http.StatusServiceUnavailable
	}

	if lfsErr {
		renderJSON(w, status, lfs.ErrorResponse{
			Message:   err.Error(),
			RequestID: requestID(r),
		})
		return
	}
	renderStatus(status)(w, r)
}

// withAccess resolves the caller's identity and checks it against the
// requested ability before handing off to the service handler.
func withAccess(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cfg := config.FromContext(ctx)
		logger := log.FromContext(ctx)
		be := backend.FromContext(ctx)
		resolver := auth.FromContext(ctx)

		c := proto.ContainerFromContext(ctx)
		vars := mux.Vars(r)

		if isLfsPath(r) && !cfg.LFS.Enabled {
			logger.Debug("LFS is not enabled, skipping")
			renderNotFound(w, r)
			return
		}

		ability := requestedAbility(r)
		result, err := resolver.Resolve(r, c, ability)
		if err != nil {
			resolver.AskCredentials(w)
			if isLfsPath(r) {
				renderJSON(w, http.StatusUnauthorized, lfs.ErrorResponse{
					Message:   "credentials needed",
					RequestID: requestID(r),
				})
				return
			}
			renderUnauthorized(w, r)
			return
		}

		if len(result.NegotiateToken) > 0 {
			w.Header().Set("WWW-Authenticate",
				"Negotiate "+base64.StdEncoding.EncodeToString(result.NegotiateToken))
		}

		identity := result.Identity
		ctx = proto.WithIdentityContext(ctx, identity)
		ctx = auth.WithResultContext(ctx, result)
		r = r.WithContext(ctx)

		if identity != nil {
			logger.Debug("authenticated", "scheme", result.Scheme)
			go be.TouchUserActivity(context.WithoutCancel(ctx), identity)
		}

		// A push into a missing container creates it for its authenticated
		// owner.
		if c == nil && git.Service(vars["service"]) == git.ReceivePackService {
			u, ok := identity.(proto.User)
			if !ok {
				renderNotFound(w, r)
				return
			}
			c, err = be.CreateContainer(ctx, vars["container"], u, true)
			if err != nil {
				logger.Error("failed to create container", "path", vars["container"], "err", err)
				renderAccessError(w, r, access.ErrUnprocessable)
				return
			}
			ctx = proto.WithContainerContext(ctx, c)
			r = r.WithContext(ctx)
		}

		if !result.Capabilities.Has(ability) {
			renderAccessError(w, r, access.ErrForbidden)
			return
		}

		if err := be.Authorize(ctx, identity, ability, c); err != nil {
			renderAccessError(w, r, err)
			return
		}

		if c != nil && git.Service(vars["service"]) == git.ReceivePackService {
			// The backing repository may not exist yet for containers
			// created through other channels.
			if err := be.EnsureRepo(c); err != nil {
				logger.Error("failed to ensure repository", "path", c.Path(), "err", err)
				renderAccessError(w, r, access.ErrUnprocessable)
				return
			}
		}

		next.ServeHTTP(w, r)
	}
}

//nolint:revive
func serviceRpc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	service, dir, containerPath := git.Service(mux.Vars(r)["service"]), mux.Vars(r)["dir"], mux.Vars(r)["container"]

	if !isSmart(r, service) {
		renderForbidden(w, r)
		return
	}

	if service == git.ReceivePackService {
		gitHttpReceiveCounter.WithLabelValues(containerPath).Inc()
	}

	w.Header().Set("Content-Type", fmt.Sprintf("application/x-%s-result", service))
	w.Header().Set("Connection", "Keep-Alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	version := r.Header.Get("Git-Protocol")

	cmd := git.ServiceCommand{
		Dir:  dir,
		Args: []string{"--stateless-rpc"},
	}

	if len(version) != 0 {
		cmd.Env = append(cmd.Env, fmt.Sprintf("GIT_PROTOCOL=%s", version))
	}

	var (
		err    error
		reader io.ReadCloser
	)

	// Handle gzip encoding
	reader = r.Body
	switch r.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(reader)
		if err != nil {
			logger.Errorf("failed to create gzip reader: %v", err)
			renderInternalServerError(w, r)
			return
		}
		defer reader.Close() // nolint: errcheck
	}

	cmd.Stdin = reader
	cmd.Stdout = &flushResponseWriter{w}

	if err := service.Handler(ctx, cmd); err != nil {
		logger.Errorf("failed to handle service: %v", err)
		return
	}

	if service == git.ReceivePackService {
		if err := git.EnsureDefaultBranch(ctx, dir); err != nil {
			logger.Errorf("failed to ensure default branch: %s", err)
		}
	}
}

// Handle buffered output
// Useful when using proxies
type flushResponseWriter struct {
	http.ResponseWriter
}

func (f *flushResponseWriter) ReadFrom(r io.Reader) (int64, error) {
	flusher := http.NewResponseController(f.ResponseWriter) // nolint: bodyclose

	var n int64
	p := make([]byte, 1024)
	for {
		nRead, err := r.Read(p)
		if err == io.EOF {
			break
		}
		nWrite, err := f.ResponseWriter.Write(p[:nRead])
		if err != nil {
			return n, err
		}
		if nRead != nWrite {
			return n, err
		}
		n += int64(nRead)
		// ResponseWriter must support http.Flusher to handle buffered output.
		if err := flusher.Flush(); err != nil {
			return n, fmt.Errorf("%w: error while flush", err)
		}
	}

	return n, nil
}

func getInfoRefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	be := backend.FromContext(ctx)
	dir, containerPath, file := mux.Vars(r)["dir"], mux.Vars(r)["container"], mux.Vars(r)["file"]
	service := getServiceType(r)
	version := r.Header.Get("Git-Protocol")

	gitHttpUploadCounter.WithLabelValues(containerPath, file).Inc()

	if service == git.UploadPackService || service == git.ReceivePackService {
		// Smart HTTP
		var refs bytes.Buffer
		cmd := git.ServiceCommand{
			Stdout: &refs,
			Dir:    dir,
			Args:   []string{"--stateless-rpc", "--advertise-refs"},
		}

		if len(version) != 0 {
			cmd.Env = append(cmd.Env, fmt.Sprintf("GIT_PROTOCOL=%s", version))
		}

		if err := service.Handler(ctx, cmd); err != nil {
			renderNotFound(w, r)
			return
		}

		if service == git.UploadPackService {
			// Fetch accounting must never block the advertisement.
			if c := proto.ContainerFromContext(ctx); c != nil {
				go func(ctx context.Context) {
					if err := be.IncrementContainerFetch(ctx, c); err != nil {
						logger.Error("failed to record fetch", "path", c.Path(), "err", err)
					}
				}(context.WithoutCancel(ctx))
			}
		}

		hdrNocache(w)
		w.Header().Set("Content-Type", fmt.Sprintf("application/x-%s-advertisement", service))
		w.WriteHeader(http.StatusOK)
		if len(version) == 0 {
			git.WritePktline(w, "# service="+service.String()) // nolint: errcheck
		}

		w.Write(refs.Bytes()) // nolint: errcheck
	} else {
		// Dumb HTTP
		git.UpdateServerInfo(ctx, dir) // nolint: errcheck
		hdrNocache(w)
		sendFile("text/plain; charset=utf-8", w, r)
	}
}

func getInfoPacks(w http.ResponseWriter, r *http.Request) {
	hdrCacheForever(w)
	sendFile("text/plain; charset=utf-8", w, r)
}

func getLooseObject(w http.ResponseWriter, r *http.Request) {
	hdrCacheForever(w)
	sendFile("application/x-git-loose-object", w, r)
}

func getPackFile(w http.ResponseWriter, r *http.Request) {
	hdrCacheForever(w)
	sendFile("application/x-git-packed-objects", w, r)
}

func getIdxFile(w http.ResponseWriter, r *http.Request) {
	hdrCacheForever(w)
	sendFile("application/x-git-packed-objects-toc", w, r)
}

func getTextFile(w http.ResponseWriter, r *http.Request) {
	hdrNocache(w)
	sendFile("text/plain", w, r)
}

func sendFile(contentType string, w http.ResponseWriter, r *http.Request) {
	dir, file := mux.Vars(r)["dir"], mux.Vars(r)["file"]
	reqFile := filepath.Join(dir, file)

	f, err := os.Stat(reqFile)
	if os.IsNotExist(err) {
		renderNotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", f.Size()))
	w.Header().Set("Last-Modified", f.ModTime().Format(http.TimeFormat))
	http.ServeFile(w, r, reqFile)
}

func getServiceType(r *http.Request) git.Service {
	service := r.FormValue("service")
	if !strings.HasPrefix(service, "git-") {
		return ""
	}

	return git.Service(service)
}

func isSmart(r *http.Request, service git.Service) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, fmt.Sprintf("application/x-%s-request", service))
}

// HTTP error response handling functions

func renderBadRequest(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusBadRequest)(w, r)
}

func renderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.Proto == "HTTP/1.1" {
		renderStatus(http.StatusMethodNotAllowed)(w, r)
	} else {
		renderBadRequest(w, r)
	}
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusNotFound)(w, r)
}

func renderUnauthorized(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusUnauthorized)(w, r)
}

func renderForbidden(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusForbidden)(w, r)
}

func renderInternalServerError(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusInternalServerError)(w, r)
}

// Header writing functions

func hdrNocache(w http.ResponseWriter) {
	w.Header().Set("Expires", "Fri, 01 Jan 1980 00:00:00 GMT")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
}

func hdrCacheForever(w http.ResponseWriter) {
	now := time.Now().Unix()
	expires := now + 31536000
	w.Header().Set("Date", fmt.Sprintf("%d", now))
	w.Header().Set("Expires", fmt.Sprintf("%d", expires))
	w.Header().Set("Cache-Control", "public, max-age=31536000")
}
