package web

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestInfoRefsAnonymousPublic(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.request(t, http.MethodGet, "/alice/project.git/info/refs?service=git-upload-pack", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get("Content-Type"), "application/x-git-upload-pack-advertisement")

	body, err := io.ReadAll(resp.Body)
	is.NoErr(err)
	// Without a Git-Protocol header the response opens with the service
	// announcement pkt-line.
	is.True(strings.HasPrefix(string(body), "001e# service=git-upload-pack"))
}

func TestInfoRefsAnonymousPrivate(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/private", alice, true)

	resp := e.request(t, http.MethodGet, "/alice/private.git/info/refs?service=git-upload-pack", nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
	is.True(strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Basic realm="))
}

func TestInfoRefsAnonymousDisabled(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	e.cfg.Auth.AnonymousEnabled = false
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.request(t, http.MethodGet, "/alice/project.git/info/refs?service=git-upload-pack", nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
}

func TestInfoRefsOwnerBasic(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/private", alice, true)

	resp := e.request(t, http.MethodGet, "/alice/private.git/info/refs?service=git-upload-pack", nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusOK)
}

func TestInfoRefsBadPassword(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	// A failed Basic exchange is terminal. It must not fall through to the
	// anonymous gate even though the container is public.
	resp := e.request(t, http.MethodGet, "/alice/project.git/info/refs?service=git-upload-pack", nil,
		withBasicAuth("alice", "wrong"))
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
}

func TestPrivateContainerHiddenFromStranger(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createUser(t, "bob", "hunter2", false)
	e.createContainer(t, "alice/private", alice, true)

	// A private container an identity cannot read at all appears absent.
	resp := e.request(t, http.MethodGet, "/alice/private.git/info/refs?service=git-upload-pack", nil,
		withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestAccessTokenBasic(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/private", alice, true)

	token, err := e.be.CreateAccessToken(e.ctx, alice, "test", time.Time{})
	is.NoErr(err)

	resp := e.request(t, http.MethodGet, "/alice/private.git/info/refs?service=git-upload-pack", nil,
		withBasicAuth("alice", token))
	is.Equal(resp.StatusCode, http.StatusOK)
}

func TestInfoRefsReceivePackAnonymous(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	// The push handshake needs push capability even on a public container,
	// so an anonymous caller is challenged rather than served.
	resp := e.request(t, http.MethodGet, "/alice/project.git/info/refs?service=git-receive-pack", nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
	is.True(strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Basic realm="))
}

func TestInfoRefsReceivePackReadOnlyUser(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createUser(t, "bob", "hunter2", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.request(t, http.MethodGet, "/alice/project.git/info/refs?service=git-receive-pack", nil,
		withBasicAuth("bob", "hunter2"))
	is.Equal(resp.StatusCode, http.StatusForbidden)
}

func TestMethodCheckedBeforeAuth(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/private", alice, true)

	// An unsupported method is rejected without a credential exchange.
	resp := e.request(t, http.MethodPut, "/alice/private.git/info/refs?service=git-upload-pack", nil)
	is.Equal(resp.StatusCode, http.StatusMethodNotAllowed)
	is.Equal(resp.Header.Get("WWW-Authenticate"), "")
}

func TestServiceRpcRequiresSmartContentType(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	alice := e.createUser(t, "alice", "secret", false)
	e.createContainer(t, "alice/project", alice, false)

	resp := e.request(t, http.MethodPost, "/alice/project.git/git-upload-pack", nil,
		withHeader("Content-Type", "text/plain"))
	is.Equal(resp.StatusCode, http.StatusForbidden)
}

func TestUnknownContainer(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)
	e.createUser(t, "alice", "secret", false)

	resp := e.request(t, http.MethodGet, "/alice/missing.git/info/refs?service=git-upload-pack", nil,
		withBasicAuth("alice", "secret"))
	is.Equal(resp.StatusCode, http.StatusNotFound)
}

func TestHealthz(t *testing.T) {
	is := is.New(t)
	e := newTestEnv(t)

	resp := e.request(t, http.MethodGet, "/livez", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	resp = e.request(t, http.MethodGet, "/readyz", nil)
	is.Equal(resp.StatusCode, http.StatusOK)
}
