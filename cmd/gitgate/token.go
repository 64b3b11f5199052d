package main

import (
	"time"

	"github.com/gitgate/gitgate/cmd"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:                "token",
	Aliases:            []string{"tokens"},
	Short:              "Manage access and deploy tokens",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	var expiresIn time.Duration
	tokenCreateCommand := &cobra.Command{
		Use:   "create USERNAME NAME",
		Short: "Create an access token for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			user, err := be.User(ctx, args[0])
			if err != nil {
				return err
			}

			var expiresAt time.Time
			if expiresIn > 0 {
				expiresAt = time.Now().Add(expiresIn)
			}

			token, err := be.CreateAccessToken(ctx, user, args[1], expiresAt)
			if err != nil {
				return err
			}

			c.Println(token)
			return nil
		},
	}

	tokenCreateCommand.Flags().DurationVarP(&expiresIn, "expires-in", "e", 0, "token expiry duration, 0 means no expiry")

	var deployUsername string
	var deployWrite bool
	var deployExpiresIn time.Duration
	tokenDeployCommand := &cobra.Command{
		Use:   "create-deploy PATH NAME",
		Short: "Create a deploy token for a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			container, err := be.ContainerByPath(ctx, args[0])
			if err != nil {
				return err
			}

			var expiresAt time.Time
			if deployExpiresIn > 0 {
				expiresAt = time.Now().Add(deployExpiresIn)
			}

			token, err := be.CreateDeployToken(ctx, args[1], deployUsername, container.ID(), deployWrite, expiresAt)
			if err != nil {
				return err
			}

			c.Println(token)
			return nil
		},
	}

	tokenDeployCommand.Flags().StringVarP(&deployUsername, "username", "u", "", "username the token authenticates as")
	tokenDeployCommand.Flags().BoolVarP(&deployWrite, "write", "w", false, "allow the token to push")
	tokenDeployCommand.Flags().DurationVarP(&deployExpiresIn, "expires-in", "e", 0, "token expiry duration, 0 means no expiry")

	tokenCmd.AddCommand(
		tokenCreateCommand,
		tokenDeployCommand,
	)
}
