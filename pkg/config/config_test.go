package config

import (
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseEnvOverrides(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	is.NoErr(os.Setenv("GITGATE_DATA_PATH", td))
	is.NoErr(os.Setenv("GITGATE_HTTP_PUBLIC_URL", "https://git.example.com/"))
	is.NoErr(os.Setenv("GITGATE_LFS_PROXY_DOWNLOAD", "true"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("GITGATE_DATA_PATH"))
		is.NoErr(os.Unsetenv("GITGATE_HTTP_PUBLIC_URL"))
		is.NoErr(os.Unsetenv("GITGATE_LFS_PROXY_DOWNLOAD"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.DataPath, td)
	// Trailing slash is stripped during validation.
	is.Equal(cfg.HTTP.PublicURL, "https://git.example.com")
	is.True(cfg.LFS.ProxyDownload)
}

func TestValidateDefaults(t *testing.T) {
	is := is.New(t)
	cfg := &Config{DataPath: t.TempDir()}
	is.NoErr(cfg.Validate())
	is.Equal(cfg.LFS.TokenExpiry, 30*time.Minute)
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Auth.Realm = "test-realm"
	is.NoErr(cfg.WriteConfig())

	got := DefaultConfig()
	got.DataPath = cfg.DataPath
	is.NoErr(got.ParseFile())
	is.Equal(got.Auth.Realm, "test-realm")
	is.Equal(got.HTTP.ListenAddr, cfg.HTTP.ListenAddr)
}
