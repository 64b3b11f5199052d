package log

import (
	"path/filepath"
	"testing"

	"github.com/gitgate/gitgate/pkg/config"
)

func TestNewLogger(t *testing.T) {
	for _, c := range []*config.Config{
		config.DefaultConfig(),
		{},
		{Log: config.LogConfig{Path: filepath.Join(t.TempDir(), "gateway.log")}},
	} {
		_, f, err := NewLogger(c)
		if err != nil {
			t.Errorf("NewLogger(%v) = %v, want nil error", c, err)
		}
		if f != nil {
			f.Close()
		}
	}
}

func TestNewLoggerErrors(t *testing.T) {
	for _, c := range []*config.Config{
		nil,
		{Log: config.LogConfig{Path: "\x00"}},
	} {
		_, f, err := NewLogger(c)
		if err == nil {
			t.Errorf("NewLogger(%v) = nil error, want error", c)
		}
		if f != nil {
			f.Close()
		}
	}
}
