package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taxifare/trainer"
)

var sweepSave bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the first configured model and distance mode, then save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperiment(cmd, false, true)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Train and score every configured model for every distance mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperiment(cmd, true, sweepSave)
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepSave, "save", false, "save the best model")
}

func runExperiment(cmd *cobra.Command, all, save bool) error {
	ctx := cmd.Context()
	d := &deps{}
	defer d.close()

	src, err := d.source(ctx, cfg)
	if err != nil {
		return err
	}
	tracker, err := d.tracker(ctx, cfg)
	if err != nil {
		return err
	}
	opts := trainer.Options{
		Source:   src,
		RowLimit: cfg.Data.RowLimit,
		TestSize: cfg.Data.TestSize,
		Seed:     cfg.Data.Seed,
		Configs:  pipelineConfigs(cfg, all),
		Tracker:  tracker,
	}
	if save {
		if opts.Store, err = d.store(ctx, cfg); err != nil {
			return err
		}
		opts.ModelName = cfg.Store.Name
	}

	results, err := trainer.Experiment(ctx, opts)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PIPELINE\tRMSE\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", r.Pipeline, r.RMSE, r.RunID)
	}
	return w.Flush()
}
