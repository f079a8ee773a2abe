package cmd

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"taxifare/data"
	"taxifare/database"
)

var (
	generateRows int
	generateSeed int64
	generateOut  string
	generateToDB bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic training trips to a CSV file or the trips table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds := data.Synthetic(generateRows, generateSeed)
		if generateToDB {
			d := &deps{}
			defer d.close()
			db, err := d.postgres(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			if err := database.InsertTrips(cmd.Context(), db, cfg.Data.Table, ds.Trips); err != nil {
				return err
			}
			slog.Info("trips inserted", "table", cfg.Data.Table, "rows", len(ds.Trips))
			return nil
		}

		f, err := os.Create(generateOut)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		if err := data.WriteCSV(f, ds); err != nil {
			f.Close()
			return errors.Wrap(err, "write trips")
		}
		slog.Info("trips written", "path", generateOut, "rows", len(ds.Trips))
		return f.Close()
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateRows, "rows", 10000, "number of trips")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 1, "random seed")
	generateCmd.Flags().StringVar(&generateOut, "out", "raw_data/train.csv", "output CSV path")
	generateCmd.Flags().BoolVar(&generateToDB, "db", false, "insert into the configured trips table instead")
}
