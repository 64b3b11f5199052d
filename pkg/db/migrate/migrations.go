package migrate

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/gitgate/gitgate/pkg/db"
)

//go:embed *.sql
var sqls embed.FS

// Ordered oldest to newest; versions must be contiguous.
var migrations = []Migration{
	createTables,
}

// execMigration runs the embedded SQL file for one migration step. Files
// are named NNNN_name_driver.direction.sql, one per supported driver.
func execMigration(ctx context.Context, h db.Handler, version int, name string, down bool) error {
	direction := "up"
	if down {
		direction = "down"
	}

	driverName := h.DriverName()
	if driverName == driverSQLite3 {
		driverName = driverSQLite
	}

	fn := fmt.Sprintf("%04d_%s_%s.%s.sql", version, fileName(name), driverName, direction)
	sqlstr, err := sqls.ReadFile(fn)
	if err != nil {
		return err
	}

	_, err = h.ExecContext(ctx, string(sqlstr))
	return err
}

func migrateUp(ctx context.Context, h db.Handler, version int, name string) error {
	return execMigration(ctx, h, version, name, false)
}

func migrateDown(ctx context.Context, h db.Handler, version int, name string) error {
	return execMigration(ctx, h, version, name, true)
}

func fileName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
