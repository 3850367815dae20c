package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

var errDatabaseDown = errors.New("database is down")

func newCheckDBCmd(g *globals) *cobra.Command {
	var (
		asJSON   bool
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "check-db",
		Short: "Connect to the database and report its health",
		Long: `Connects with the configured retry policy, pings the database and prints
pool usage. Exits non-zero when the database cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader(g.configFile).Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if attempts > 0 {
				cfg.Database.ConnectRetries = attempts
			}

			start := time.Now()
			db, err := persistence.NewDatabase(cmd.Context(), &cfg.Database, g.log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			health := db.Health(cmd.Context())
			if err := writeHealth(cmd.OutOrStdout(), cfg.Database, health, time.Since(start), asJSON); err != nil {
				return err
			}
			if !health.IsUp() {
				return errDatabaseDown
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "connection attempts, overriding database.connect_retries")
	return cmd
}

func writeHealth(w io.Writer, cfg config.DatabaseConfig, h persistence.HealthStatus, connectTime time.Duration, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Host     string `json:"host"`
			Database string `json:"database"`
			persistence.HealthStatus
		}{cfg.Host, cfg.DBName, h})
	}
	_, err := fmt.Fprintf(w,
		"database:   %s@%s/%s\nstatus:     %s\nconnect:    %s\nping:       %s\nconns:      %d open, %d in use, %d idle\n",
		cfg.User, cfg.Host, cfg.DBName,
		h.Status,
		connectTime.Round(time.Millisecond),
		h.Latency.Round(time.Microsecond),
		h.OpenConnections, h.InUse, h.Idle,
	)
	if err != nil {
		return err
	}
	if h.Error != "" {
		_, err = fmt.Fprintf(w, "error:      %s\n", h.Error)
	}
	return err
}
