package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/migrate"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/gitgate/gitgate/pkg/store/database"
	"github.com/matryer/is"
)

type resolverEnv struct {
	ctx      context.Context
	cfg      *config.Config
	be       *backend.Backend
	tokens   *lfstoken.Manager
	resolver *Resolver

	alice proto.User
	repo  proto.Container
}

func newResolverEnv(t *testing.T, verifier TicketVerifier) *resolverEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.DB.DataSource = filepath.Join(cfg.DataPath, "test.db")

	ctx := log.WithContext(context.TODO(), log.New(io.Discard))
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

	tokens, err := lfstoken.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}

	alice, err := be.CreateUser(ctx, "alice", "secret", false)
	if err != nil {
		t.Fatal(err)
	}
	repo, err := be.CreateContainer(ctx, "alice/project", alice, false)
	if err != nil {
		t.Fatal(err)
	}

	return &resolverEnv{
		ctx:      ctx,
		cfg:      cfg,
		be:       be,
		tokens:   tokens,
		resolver: NewResolver(ctx, be, tokens, verifier),
		alice:    alice,
		repo:     repo,
	}
}

func (e *resolverEnv) newRequest(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/alice/project.git/info/refs", nil).WithContext(e.ctx)
}

func TestResolveBasicPassword(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	req := e.newRequest(t)
	req.SetBasicAuth("alice", "secret")

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityPush)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeBasic)
	is.True(res.Identity != nil)
	is.True(res.Capabilities.Has(access.AbilityPush))
	is.True(res.Capabilities.Has(access.AbilityForceUnlock))
}

func TestResolveBasicFailureIsTerminal(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	// A failed Basic exchange must not fall through to the anonymous gate,
	// even for a public container download.
	req := e.newRequest(t)
	req.SetBasicAuth("alice", "wrong")

	_, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveAnonymous(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	res, err := e.resolver.Resolve(e.newRequest(t), e.repo, access.AbilityDownload)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeAnonymous)
	is.True(res.Identity == nil)
	is.True(res.Capabilities.Has(access.AbilityDownload))
	is.True(!res.Capabilities.Has(access.AbilityPush))

	// The gate only opens for downloads.
	_, err = e.resolver.Resolve(e.newRequest(t), e.repo, access.AbilityPush)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveAnonymousPrivate(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	private, err := e.be.CreateContainer(e.ctx, "alice/private", e.alice, true)
	is.NoErr(err)

	_, err = e.resolver.Resolve(e.newRequest(t), private, access.AbilityDownload)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveAnonymousDisabled(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)
	e.cfg.Auth.AnonymousEnabled = false

	_, err := e.resolver.Resolve(e.newRequest(t), e.repo, access.AbilityDownload)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveAccessToken(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	token, err := e.be.CreateAccessToken(e.ctx, e.alice, "test", time.Time{})
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth("alice", token)

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeBasic)
	u, ok := res.Identity.(proto.User)
	is.True(ok)
	is.Equal(u.Username(), "alice")
}

func TestResolveExpiredAccessToken(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	token, err := e.be.CreateAccessToken(e.ctx, e.alice, "test", time.Now().Add(-time.Hour))
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth("alice", token)

	_, err = e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveDeployToken(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	token, err := e.be.CreateDeployToken(e.ctx, "ci", "deployer", e.repo.ID(), false, time.Time{})
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth("deployer", token)

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeBasic)
	dt, ok := res.Identity.(proto.DeployToken)
	is.True(ok)
	is.Equal(dt.ContainerID(), e.repo.ID())
	is.True(!dt.CanWrite())
}

func TestResolveCIJobToken(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	token, err := e.be.CreateAccessToken(e.ctx, e.alice, "job", time.Time{})
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth(e.cfg.Auth.CIJobUser, token)

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeCI)
	u, ok := res.Identity.(proto.User)
	is.True(ok)
	is.Equal(u.Username(), "alice")
}

func TestResolveTransferCredential(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	signed, _, err := e.tokens.Mint(MintSubject(e.alice), e.repo.Path(), lfs.OperationDownload)
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth("gitgate-lfs", signed)

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeBasic)
	is.True(res.Capabilities.Has(access.AbilityDownload))
	// A download credential does not grant uploads.
	is.True(!res.Capabilities.Has(access.AbilityPush))

	signed, _, err = e.tokens.Mint(MintSubject(e.alice), e.repo.Path(), lfs.OperationUpload)
	is.NoErr(err)

	req = e.newRequest(t)
	req.SetBasicAuth("gitgate-lfs", signed)

	res, err = e.resolver.Resolve(req, e.repo, access.AbilityPush)
	is.NoErr(err)
	is.True(res.Capabilities.Has(access.AbilityPush))
}

func TestResolveTransferCredentialWrongContainer(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	other, err := e.be.CreateContainer(e.ctx, "alice/other", e.alice, false)
	is.NoErr(err)

	signed, _, err := e.tokens.Mint(MintSubject(e.alice), e.repo.Path(), lfs.OperationDownload)
	is.NoErr(err)

	req := e.newRequest(t)
	req.SetBasicAuth("gitgate-lfs", signed)

	_, err = e.resolver.Resolve(req, other, access.AbilityDownload)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

type staticVerifier struct {
	username string
	response []byte
	err      error
}

func (v staticVerifier) VerifyTicket(_ context.Context, _ []byte) (string, []byte, error) {
	return v.username, v.response, v.err
}

func TestResolveKerberos(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, staticVerifier{username: "alice", response: []byte("final")})
	e.cfg.Auth.KerberosEnabled = true

	req := e.newRequest(t)
	req.Header.Set("Authorization", "Negotiate "+base64.StdEncoding.EncodeToString([]byte("ticket")))

	res, err := e.resolver.Resolve(req, e.repo, access.AbilityPush)
	is.NoErr(err)
	is.Equal(res.Scheme, SchemeKerberos)
	is.Equal(string(res.NegotiateToken), "final")
	u, ok := res.Identity.(proto.User)
	is.True(ok)
	is.Equal(u.Username(), "alice")
}

func TestResolveKerberosBadTicket(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, staticVerifier{err: errors.New("bad ticket")})
	e.cfg.Auth.KerberosEnabled = true

	req := e.newRequest(t)
	req.Header.Set("Authorization", "Negotiate "+base64.StdEncoding.EncodeToString([]byte("ticket")))

	_, err := e.resolver.Resolve(req, e.repo, access.AbilityPush)
	is.True(errors.Is(err, ErrAuthenticationRequired))
}

func TestResolveKerberosDisabled(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, staticVerifier{username: "alice"})

	req := e.newRequest(t)
	req.Header.Set("Authorization", "Negotiate "+base64.StdEncoding.EncodeToString([]byte("ticket")))

	_, err := e.resolver.Resolve(req, e.repo, access.AbilityDownload)
	// With Kerberos off the header is ignored and the anonymous gate
	// answers the download.
	is.NoErr(err)
}

func TestAskCredentials(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)
	e.cfg.Auth.KerberosEnabled = true

	rec := httptest.NewRecorder()
	e.resolver.AskCredentials(rec)

	www := rec.Header().Values("WWW-Authenticate")
	lfsAuth := rec.Header().Values("LFS-Authenticate")
	is.Equal(len(www), 2)
	is.Equal(www, lfsAuth)
	is.Equal(www[1], "Negotiate")
}

func TestMintSubject(t *testing.T) {
	is := is.New(t)
	e := newResolverEnv(t, nil)

	is.True(MintSubject(e.alice) != "")
	is.Equal(MintSubject(nil), "")
}
