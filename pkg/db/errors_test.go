package db

import (
	"database/sql"
	"errors"
	"testing"
)

func TestWrapErrorPassthrough(t *testing.T) {
	e := errors.New("some driver failure")
	if err := WrapError(e); err != e {
		t.Errorf("WrapError(%v) = %v, want unchanged", e, err)
	}
	if err := WrapError(nil); err != nil {
		t.Errorf("WrapError(nil) = %v, want nil", err)
	}
}

func TestWrapErrorNoRows(t *testing.T) {
	if err := WrapError(sql.ErrNoRows); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("WrapError(sql.ErrNoRows) = %v, want ErrRecordNotFound", err)
	}
}

func TestWrapErrorSqliteUnique(t *testing.T) {
	for _, msg := range []string{
		"constraint failed: UNIQUE constraint failed: users.username (2067)",
		"constraint failed: PRIMARY KEY constraint failed (1555)",
	} {
		if err := WrapError(errors.New(msg)); !errors.Is(err, ErrDuplicateKey) {
			t.Errorf("WrapError(%q) = %v, want ErrDuplicateKey", msg, err)
		}
	}
}
