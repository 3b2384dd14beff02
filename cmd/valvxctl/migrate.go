package main

import (
	"github.com/spf13/cobra"

	"valvx/internal/repository/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and ensure the root folder exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, closeEnv, err := openEnv(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeEnv()

			if err := postgres.Migrate(ctx, e.pool, e.logger); err != nil {
				return err
			}
			if err := postgres.EnsureRootFolder(ctx, e.pool, e.logger); err != nil {
				return err
			}
			cmd.Println("database is up to date")
			return nil
		},
	}
}
