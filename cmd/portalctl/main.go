package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/citizen-api/internal/config"
	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository/postgres"
	"github.com/jwalitptl/citizen-api/internal/seed"
	"github.com/jwalitptl/citizen-api/pkg/auth"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "portalctl",
		Short:        "Operator tooling for the citizen services portal",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(devTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(db)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if applied {
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema already up to date.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.MigrateDown(db); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back.")
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load locations, officers and service types from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")

			f, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			base := postgres.NewBaseRepository(db)
			sum, err := seed.Apply(ctx, seed.Target{
				Locations:    postgres.NewLocationRepository(base),
				Officers:     postgres.NewOfficerRepository(base),
				ServiceTypes: postgres.NewServiceTypeRepository(base),
			}, f)
			if err != nil {
				return fmt.Errorf("seed failed after %s: %w", sum, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s.\n", sum)
			return nil
		},
	}
	cmd.Flags().String("file", "config/seed.yaml", "Path to the seed file")
	return cmd
}

func devTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			user, _ := cmd.Flags().GetString("user")
			division, _ := cmd.Flags().GetString("division")
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			actor := model.Actor{Role: role, Email: email}
			if user == "" {
				actor.UserID = uuid.New()
			} else {
				id, err := uuid.Parse(user)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				actor.UserID = id
			}
			if division != "" {
				id, err := uuid.Parse(division)
				if err != nil {
					return fmt.Errorf("invalid --division: %w", err)
				}
				actor.DivisionID = &id
			}
			if role == model.RoleOfficer && actor.DivisionID == nil {
				return fmt.Errorf("--division is required for officers")
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			jwt := auth.NewJWTService(auth.Config{
				Secret: cfg.JWT.Secret,
				Issuer: cfg.JWT.Issuer,
				Expiry: ttl,
			})
			token, err := jwt.GenerateAccessToken(actor)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "user %s role %s\n", actor.UserID, actor.Role)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("role", model.RoleCitizen, "CITIZEN, OFFICER or ADMIN")
	cmd.Flags().String("user", "", "User id; officers use their officer id")
	cmd.Flags().String("division", "", "Division id, required for officers")
	cmd.Flags().String("email", "", "E-mail address for notification copies")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
