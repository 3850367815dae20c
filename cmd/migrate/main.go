package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/infrastructure/migration"
	"github.com/perfume/backend/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type options struct {
	path     string
	embedded bool
	logLevel string
	log      *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Database migration tool for the perfume backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, _, err := logger.New(logger.Config{Level: opts.logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			path, err := resolveMigrationsPath(opts.path)
			if err != nil {
				return err
			}
			opts.path = path
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "path to the migrations directory (default ./migrations)")
	root.PersistentFlags().BoolVar(&opts.embedded, "embedded", false, "apply the migrations compiled into the binary instead of --path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newStepsCmd(opts),
		newGotoCmd(opts),
		newVersionCmd(opts),
		newForceCmd(opts),
		newCreateCmd(opts),
		newListCmd(opts),
	)
	return root
}

func newUpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Up() })
		},
	}
}

func newDownCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "down [n]",
		Short: "Roll back the last n migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				n = v
			}
			if all {
				n = 0
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Down(n) })
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "roll back every applied migration")
	return cmd
}

func newStepsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "steps n",
		Short:   "Apply n migrations, negative n rolls back",
		Example: "  migrate steps 2\n  migrate steps -- -1",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Steps(n) })
		},
	}
}

func newGotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goto version",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				if status.Pristine {
					opts.log.Info("No migrations applied")
					return nil
				}
				opts.log.Info("Current migration version",
					zap.Uint("version", status.Version),
					zap.Bool("dirty", status.Dirty),
				)
				return nil
			})
		},
	}
}

func newForceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force version",
		Short: "Set the schema version without running SQL and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Force(v) })
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "create name [description]",
		Short:   "Create a new up/down migration pair",
		Example: `  migrate create add_wishlist "Wishlist table keyed by user"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(opts.path, args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			fmt.Fprintln(cmd.OutOrStdout(), mf.BaseName())
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrations, err := migration.ListMigrations(opts.path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range migrations {
				down := ""
				if !m.HasDown {
					down = " (no down)"
				}
				fmt.Fprintf(out, "%06d %s%s\n", m.Version, m.Name, down)
			}
			return nil
		},
	}
}

// withMigrator opens the configured postgres database, runs fn and closes
// both the migrator and the connection.
func withMigrator(opts *options, fn func(m *migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if opts.embedded {
		opts.log.Info("Running embedded migrations", zap.String("database", cfg.Database.DBName))
		m, err = migration.NewFromFS(db, migrations.FS, ".", opts.log)
	} else {
		opts.log.Info("Running migrations",
			zap.String("database", cfg.Database.DBName),
			zap.String("path", opts.path),
		)
		m, err = migration.New(db, opts.path, opts.log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			opts.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

// resolveMigrationsPath falls back to ./migrations, then to the directory two
// levels above the executable
func resolveMigrationsPath(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	return abs, nil
}
