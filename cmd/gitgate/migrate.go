package main

import (
	"github.com/gitgate/gitgate/cmd"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/migrate"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:                "migrate",
	Short:              "Migrate the database to the latest version",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		return migrate.Migrate(ctx, db.FromContext(ctx))
	},
}

func init() {
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "rollback",
			Short: "Rollback the last database migration",
			RunE: func(c *cobra.Command, _ []string) error {
				ctx := c.Context()
				return migrate.Rollback(ctx, db.FromContext(ctx))
			},
		},
	)
}
