// Package cli provides the command-line interface for the reconciliation service.
package cli

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/owid/lc-reconcile/config"
)

var (
	// Version is set at build time.
	Version = "dev"

	cfg    config.Config
	logger ectologger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "OpenRefine reconciliation service for country and entity names",
	Long: `Reconciles free-text country names against the canonical country list.

Names are reduced to a fingerprint (case, accents, punctuation and word order
removed) and matched against every known spelling of every country and entity.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cfg.Version == "dev" {
			cfg.Version = Version
		}

		logger, err = newLogger(cfg.LogLevel, cfg.PrettyLogs)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(fingerprintCmd)
}
