package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/persistence"
	"github.com/spec-kit/shopfloor-issues/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateFlags struct {
	name     string
	email    string
	password string
	role     int
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account at a role level (1 operator, 2 supervisor, 3 manager, 4 admin)",
	RunE:  runUserCreate,
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&userCreateFlags.name, "name", "", "display name")
	f.StringVar(&userCreateFlags.email, "email", "", "login email")
	f.StringVar(&userCreateFlags.password, "password", "", "initial password")
	f.IntVar(&userCreateFlags.role, "role", domain.RoleOperator, "role level 1-4")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	name := userCreateFlags.name
	if name == "" {
		name = userCreateFlags.email
	}
	authService := service.NewAuthService(cfg.Auth, pg.Store(logger).Users())
	user, err := authService.CreateUser(cmd.Context(), name, userCreateFlags.email, userCreateFlags.password, userCreateFlags.role)
	if err != nil {
		return err
	}

	logger.Info("user created", zap.String("user_id", user.ID), zap.Int("role_level", user.RoleLevel))
	fmt.Fprintln(cmd.OutOrStdout(), user.ID)
	return nil
}
