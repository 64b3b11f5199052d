package main

import (
	"strings"

	"github.com/gitgate/gitgate/cmd"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:                "user",
	Aliases:            []string{"users"},
	Short:              "Manage users",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	var admin bool
	var password string
	userCreateCommand := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			_, err := be.CreateUser(ctx, args[0], password, admin)
			return err
		},
	}

	userCreateCommand.Flags().BoolVarP(&admin, "admin", "a", false, "make the user an admin")
	userCreateCommand.Flags().StringVarP(&password, "password", "p", "", "set the user's password")

	userSetPasswordCommand := &cobra.Command{
		Use:   "set-password USERNAME PASSWORD",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			return be.SetPassword(ctx, args[0], args[1])
		},
	}

	userListCommand := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			usernames, err := be.Usernames(ctx)
			if err != nil {
				return err
			}
			c.Println(strings.Join(usernames, "\n"))
			return nil
		},
	}

	userDeleteCommand := &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			return be.DeleteUser(ctx, args[0])
		},
	}

	userCmd.AddCommand(
		userCreateCommand,
		userSetPasswordCommand,
		userListCommand,
		userDeleteCommand,
	)
}
