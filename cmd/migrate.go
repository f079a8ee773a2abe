package cmd

import (
	"github.com/spf13/cobra"

	"taxifare/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the trips and experiment tracking tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migration.Run(cmd.Context(), cfg.DB)
	},
}
