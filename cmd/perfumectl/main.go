// Command perfumectl holds operator tasks that do not belong on the HTTP API.
package main

import (
	"os"

	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globals struct {
	configFile string
	logLevel   string
	log        *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "perfumectl",
		Short:        "Operator commands for the perfume backend",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			log, _, err := logger.New(logger.Config{Level: g.logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", os.Getenv("PERFUME_CONFIG"), "path to config.toml")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newSeedAdminCmd(g), newCheckDBCmd(g))
	return root
}
