package main

import (
	"errors"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"valvx/internal/repository/postgres"
)

const confirmFlag = "confirm"

var resetFlags = map[string]cobraflags.Flag{
	confirmFlag: &cobraflags.StringFlag{
		Name:  confirmFlag,
		Usage: `Must be "drop everything"`,
	},
}

func newResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every table and re-run migrations (uploaded files are kept)",
		RunE:  resetDatabase,
	}
	cobraflags.RegisterMap(cmd, resetFlags)
	return cmd
}

func resetDatabase(cmd *cobra.Command, _ []string) error {
	if resetFlags[confirmFlag].GetString() != "drop everything" {
		return errors.New(`refusing to reset without --confirm "drop everything"`)
	}

	ctx := cmd.Context()
	e, closeEnv, err := openEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeEnv()

	if e.cfg.Environment == "prod" {
		return errors.New("reset-db is disabled in prod")
	}
	if err := postgres.DropAll(ctx, e.pool, e.logger); err != nil {
		return err
	}
	if err := postgres.Migrate(ctx, e.pool, e.logger); err != nil {
		return err
	}
	if err := postgres.EnsureRootFolder(ctx, e.pool, e.logger); err != nil {
		return err
	}
	cmd.Println("database reset")
	return nil
}
