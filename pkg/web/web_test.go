package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/migrate"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/storage"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/gitgate/gitgate/pkg/store/database"
)

type testEnv struct {
	ctx    context.Context
	cfg    *config.Config
	db     *db.DB
	store  store.Store
	be     *backend.Backend
	strg   storage.Storage
	tokens *lfstoken.Manager
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.DB.DataSource = filepath.Join(cfg.DataPath, "test.db")

	logger := log.New(io.Discard)
	ctx := log.WithContext(context.TODO(), logger)
	ctx = config.WithContext(ctx, cfg)

	dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			t.Error(err)
		}
	})
	if err := migrate.Migrate(ctx, dbx); err != nil {
		t.Fatal(err)
	}
	ctx = db.WithContext(ctx, dbx)

	datastore := database.New(ctx, dbx)
	ctx = store.WithContext(ctx, datastore)

	be := backend.New(ctx, cfg, dbx, datastore)
	ctx = backend.WithContext(ctx, be)

	strg := storage.NewLocalStorage(cfg.LFSPath())
	ctx = storage.WithContext(ctx, strg)

	tokens, err := lfstoken.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx = lfstoken.WithContext(ctx, tokens)

	resolver := auth.NewResolver(ctx, be, tokens, nil)
	ctx = auth.WithContext(ctx, resolver)

	server := httptest.NewServer(NewRouter(ctx))
	t.Cleanup(server.Close)

	return &testEnv{
		ctx:    ctx,
		cfg:    cfg,
		db:     dbx,
		store:  datastore,
		be:     be,
		strg:   strg,
		tokens: tokens,
		server: server,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string, admin bool) proto.User {
	t.Helper()
	u, err := e.be.CreateUser(e.ctx, username, password, admin)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func (e *testEnv) createContainer(t *testing.T, path string, owner proto.User, private bool) proto.Container {
	t.Helper()
	c, err := e.be.CreateContainer(e.ctx, path, owner, private)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type reqOpts struct {
	username string
	password string
	header   map[string]string
}

func withBasicAuth(username, password string) func(*reqOpts) {
	return func(o *reqOpts) {
		o.username = username
		o.password = password
	}
}

func withHeader(key, value string) func(*reqOpts) {
	return func(o *reqOpts) {
		if o.header == nil {
			o.header = map[string]string{}
		}
		o.header[key] = value
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body []byte, opts ...func(*reqOpts)) *http.Response {
	t.Helper()

	var o reqOpts
	for _, opt := range opts {
		opt(&o)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if o.username != "" || o.password != "" {
		req.SetBasicAuth(o.username, o.password)
	}
	for k, v := range o.header {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// lfsRequest sends an LFS API request with the LFS media type set on both
// Content-Type and Accept.
func (e *testEnv) lfsRequest(t *testing.T, method, path string, body interface{}, opts ...func(*reqOpts)) *http.Response {
	t.Helper()

	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}

	opts = append(opts,
		withHeader("Content-Type", lfs.MediaType),
		withHeader("Accept", lfs.MediaType),
	)
	return e.request(t, method, path, buf, opts...)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}
