// Command valvxctl administers a ValvX installation: schema migrations,
// user accounts and a quick look at the folder tree.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"valvx/internal/config"
	"valvx/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "valvxctl",
		Short:        "Administer the ValvX PDF manager",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newCreateUserCommand())
	root.AddCommand(newFoldersCommand())
	root.AddCommand(newResetCommand())
	return root
}

// env is what every subcommand needs: configuration, a logger and a
// migrated database.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

func openEnv(ctx context.Context, out io.Writer) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// Command output goes to stdout; keep logs on stderr and quieter.
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelWarn}))

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, pool: pool}, pool.Close, nil
}
