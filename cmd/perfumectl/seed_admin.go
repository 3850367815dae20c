package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const adminPasswordEnv = "PERFUME_ADMIN_PASSWORD"

type adminInput struct {
	Name          string
	Email         string
	Password      string
	ResetPassword bool
}

type seedResult struct {
	User    *identity.User
	Created bool
}

func newSeedAdminCmd(g *globals) *cobra.Command {
	var in adminInput
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator or promote an existing account",
		Long: `Creates an admin account with the given email. When the email is
already registered the account is promoted to admin and re-activated; its
password is only replaced with --reset-password.

The password may be passed in ` + adminPasswordEnv + ` instead of --password.`,
		Example: "  perfumectl seed-admin --email owner@maison.example --name Owner",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv(adminPasswordEnv)
			}
			cfg, err := config.NewLoader(g.configFile).Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := persistence.NewDatabase(cmd.Context(), &cfg.Database, g.log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			res, err := seedAdmin(cmd.Context(), persistence.NewGormUserRepository(db.DB), in)
			if err != nil {
				return err
			}
			verb := "promoted"
			if res.Created {
				verb = "created"
			}
			g.log.Info("Admin account ready", zap.String("email", res.User.Email), zap.Bool("created", res.Created))
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s (%s)\n", verb, res.User.Email, res.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "display name for a new account")
	cmd.Flags().StringVar(&in.Password, "password", "", "password for a new account")
	cmd.Flags().BoolVar(&in.ResetPassword, "reset-password", false, "replace the password of an existing account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// seedAdmin makes sure an active admin with in.Email exists
func seedAdmin(ctx context.Context, users identity.UserRepository, in adminInput) (seedResult, error) {
	user, err := users.FindByEmail(ctx, identity.NormalizeEmail(in.Email))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if in.Password == "" {
			return seedResult{}, fmt.Errorf("a password is required to create %s", in.Email)
		}
		user, err = identity.NewUser(in.Name, in.Email, in.Password)
		if err != nil {
			return seedResult{}, err
		}
		if err := user.SetRole(identity.RoleAdmin); err != nil {
			return seedResult{}, err
		}
		if err := users.Save(ctx, user); err != nil {
			return seedResult{}, fmt.Errorf("failed to save admin: %w", err)
		}
		return seedResult{User: user, Created: true}, nil
	case err != nil:
		return seedResult{}, fmt.Errorf("failed to look up %s: %w", in.Email, err)
	}

	if err := user.SetRole(identity.RoleAdmin); err != nil {
		return seedResult{}, err
	}
	user.SetActive(true)
	if in.ResetPassword {
		if in.Password == "" {
			return seedResult{}, errors.New("--reset-password needs a password")
		}
		if err := user.SetPassword(in.Password); err != nil {
			return seedResult{}, err
		}
	}
	if err := users.Save(ctx, user); err != nil {
		return seedResult{}, fmt.Errorf("failed to save admin: %w", err)
	}
	return seedResult{User: user}, nil
}
