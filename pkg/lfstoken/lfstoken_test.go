package lfstoken

import (
	"errors"
	"testing"
	"time"

	"github.com/gitgate/gitgate/pkg/config"
	"github.com/matryer/is"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.HTTP.PublicURL = "https://gitgate.example.com"
	cfg.LFS.TokenExpiry = time.Minute
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMintVerify(t *testing.T) {
	is := is.New(t)
	m := newTestManager(t)

	credential, expiresAt, err := m.Mint("alice#1", "alice/project.git", "upload")
	is.NoErr(err)
	is.True(time.Until(expiresAt) > 0)

	claims, err := m.Verify(credential, "alice/project.git")
	is.NoErr(err)
	is.Equal(claims.Subject, "alice#1")
	is.Equal(claims.Operation, "upload")
}

func TestVerifyWrongContainer(t *testing.T) {
	is := is.New(t)
	m := newTestManager(t)

	credential, _, err := m.Mint("alice#1", "alice/project.git", "download")
	is.NoErr(err)

	_, err = m.Verify(credential, "bob/other.git")
	is.True(errors.Is(err, ErrInvalidToken))
}

func TestVerifyGarbage(t *testing.T) {
	is := is.New(t)
	m := newTestManager(t)

	_, err := m.Verify("not-a-token", "alice/project.git")
	is.True(errors.Is(err, ErrInvalidToken))
}
