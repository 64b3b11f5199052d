package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/migrate"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/store"
)

func openTestStore(t *testing.T) (context.Context, *db.DB, store.Store) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()

	ctx := log.WithContext(context.TODO(), log.New(io.Discard))
	ctx = config.WithContext(ctx, cfg)

	dbx, err := db.Open(ctx, "sqlite", filepath.Join(cfg.DataPath, "test.db"))
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

	return ctx, dbx, New(ctx, dbx)
}

func createTestUser(t *testing.T, ctx context.Context, dbx *db.DB, s store.Store, username string) models.User {
	t.Helper()
	u, err := s.CreateUser(ctx, dbx, username, false)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func createTestContainer(t *testing.T, ctx context.Context, dbx *db.DB, s store.Store, path string, userID int64) models.Container {
	t.Helper()
	c, err := s.CreateContainer(ctx, dbx, path, models.ContainerKindProject, userID, false)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
