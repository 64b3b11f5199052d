package config

import (
	"context"
	"reflect"
	"testing"
)

func TestFromContextEmpty(t *testing.T) {
	if c := FromContext(context.TODO()); c != nil {
		t.Errorf("FromContext on empty context = %v, want nil", c)
	}
}

func TestFromContextRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	ctx := WithContext(context.TODO(), cfg)
	c := FromContext(ctx)
	if c == nil || !reflect.DeepEqual(c, cfg) {
		t.Errorf("FromContext = %v, want %v", c, cfg)
	}
}
