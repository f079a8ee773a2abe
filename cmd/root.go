// Package cmd provides the taxifare command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taxifare/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taxifare",
	Short: "Train and serve the NYC taxi fare model",
	Long: `taxifare trains a regression model that predicts New York taxi fares
from pickup/dropoff coordinates, the pickup time and the passenger count,
and serves it over HTTP.

Settings come from config.yaml (or --config) and TAXIFARE_* environment
variables.`,
	Example: `  # Train the first configured model and save it
  taxifare train

  # Compare every model and distance mode, keep the best
  taxifare sweep --save

  # Serve the saved model
  taxifare serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(trainCmd, sweepCmd, serveCmd, predictCmd, migrateCmd, generateCmd)
}

// Root exports the root command for testing.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
