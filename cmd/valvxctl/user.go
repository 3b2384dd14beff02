package main

import (
	"errors"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"valvx/internal/auth"
	"valvx/internal/domain/services"
	"valvx/internal/repository/postgres"
	"valvx/internal/service/account"
)

const (
	usernameFlag = "username"
	nameFlag     = "name"
	passwordFlag = "password"
)

var createUserFlags = map[string]cobraflags.Flag{
	usernameFlag: &cobraflags.StringFlag{
		Name:  usernameFlag,
		Usage: "Login name (required)",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Usage: "Display name",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Usage: "Password; falls back to $VALVX_PASSWORD so it stays out of shell history",
	},
}

func newCreateUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account that can sign in",
		RunE:  createUser,
	}
	cobraflags.RegisterMap(cmd, createUserFlags)
	return cmd
}

func createUser(cmd *cobra.Command, _ []string) error {
	username := createUserFlags[usernameFlag].GetString()
	password := createUserFlags[passwordFlag].GetString()
	if password == "" {
		password = os.Getenv("VALVX_PASSWORD")
	}
	if username == "" || password == "" {
		return errors.New("--username and --password (or VALVX_PASSWORD) are required")
	}

	ctx := cmd.Context()
	e, closeEnv, err := openEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeEnv()

	if err := postgres.Migrate(ctx, e.pool, e.logger); err != nil {
		return err
	}

	users := postgres.NewUserRepository(&postgres.RepositoryConfig{Pool: e.pool, Logger: e.logger})
	issuer := auth.NewTokenIssuer(e.cfg.JWTSecret, e.cfg.SessionTTL, nil, e.logger)
	svc := account.NewAuthService(users, issuer, nil, e.logger)

	user, err := svc.CreateUser(ctx, &services.CreateUserRequest{
		Username: username,
		Name:     createUserFlags[nameFlag].GetString(),
		Password: password,
	})
	if err != nil {
		return err
	}

	cmd.Printf("created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
