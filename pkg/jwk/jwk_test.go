package jwk

import (
	"errors"
	"testing"

	"github.com/gitgate/gitgate/pkg/config"
)

func TestBadNewPair(t *testing.T) {
	_, err := NewPair(nil)
	if !errors.Is(err, config.ErrNilConfig) {
		t.Errorf("NewPair(nil) => %v, want %v", err, config.ErrNilConfig)
	}
}

func TestGoodNewPair(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	pair, err := NewPair(cfg)
	if err != nil {
		t.Fatalf("NewPair(cfg) => _, %v, want nil error", err)
	}

	// A second call must load the same persisted key.
	again, err := NewPair(cfg)
	if err != nil {
		t.Fatalf("NewPair(cfg) => _, %v, want nil error", err)
	}
	if pair.JWK().KeyID != again.JWK().KeyID {
		t.Errorf("key ID changed between calls: %q != %q", pair.JWK().KeyID, again.JWK().KeyID)
	}
}
