package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/config"
)

func TestNewServerRejectsKerberosWithoutVerifier(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Auth.KerberosEnabled = true

	ctx := config.WithContext(context.TODO(), cfg)
	ctx = log.WithContext(ctx, log.New(io.Discard))

	_, err := NewServer(ctx)
	if err == nil || !strings.Contains(err.Error(), "kerberos") {
		t.Fatalf("NewServer = %v, want kerberos configuration error", err)
	}
}
