// Package cmd wires the askdb pipeline into a command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Malumbo21/askdb/internal/config"
	"github.com/Malumbo21/askdb/internal/logging"
)

var (
	configFlag string
	appConfig  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "askdb",
	Short: "Ask questions about your databases in plain language",
	Long: `askdb turns natural-language questions into SQL, validates the
generated statements against the live schema, and runs them against one or
more configured databases. Reads run immediately; writes are dry-run and
require explicit approval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configFlag != "" {
			os.Setenv("ASKDB_CONFIG", configFlag)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := logging.Initialize(cfg.Logging); err != nil {
			logging.SetupFallback()
			logging.ErrorWithErr("failed to initialize logging, using fallback", err)
		}

		appConfig = cfg

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Path to the configuration file (default ~/.config/askdb/config.json)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(databasesCmd)
}
