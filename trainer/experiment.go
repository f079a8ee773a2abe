package trainer

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"taxifare/data"
	"taxifare/models"
	"taxifare/pipeline"
	"taxifare/store"
	"taxifare/tracking"
)

// MetricRMSE is the metric name reported to the tracker.
const MetricRMSE = "rmse"

// Options configures an end-to-end experiment.
type Options struct {
	Source   data.Source
	RowLimit int
	TestSize float64
	Seed     int64
	Configs  []pipeline.Config

	// Tracker is optional. Tracking failures never fail the experiment.
	Tracker *tracking.Logger

	// When Store is set the best pipeline is saved under ModelName.
	Store     store.Store
	ModelName string

	Log *slog.Logger
}

// Result is the outcome of one configuration.
type Result struct {
	Config      pipeline.Config
	Pipeline    *pipeline.Pipeline
	RMSE        float64
	RunID       string
	// TrackErrors counts tracker calls that failed for this result.
	TrackErrors int
	TrainRows   int
	ValRows     int
	Duration    time.Duration
}

// Experiment loads, cleans and splits the data once, then assembles, fits
// and scores an independent pipeline per configuration, in order.
func Experiment(ctx context.Context, opts Options) ([]Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if len(opts.Configs) == 0 {
		return nil, errors.Wrap(models.ErrInvalidConfig, "no model configurations")
	}
	testSize := opts.TestSize
	if testSize == 0 {
		testSize = data.DefaultTestSize
	}

	raw, err := data.GetData(ctx, opts.Source, opts.RowLimit)
	if err != nil {
		return nil, err
	}
	ds, report := data.Clean(raw)
	log.Info("data cleaned", "report", report)
	train, val, err := data.Split(ds, testSize, opts.Seed)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(opts.Configs))
	for _, cfg := range opts.Configs {
		p, err := pipeline.Assemble(cfg)
		if err != nil {
			return results, err
		}
		start := time.Now()
		if _, err := Run(p, train.Trips, train.Targets()); err != nil {
			return results, errors.Wrapf(err, "train %s", p)
		}
		rmse, err := Evaluate(p, val.Trips, val.Targets())
		if err != nil {
			return results, errors.Wrapf(err, "evaluate %s", p)
		}
		res := Result{
			Config:    p.Config(),
			Pipeline:  p,
			RMSE:      rmse,
			TrainRows: len(train.Trips),
			ValRows:   len(val.Trips),
			Duration:  time.Since(start),
		}
		res.RunID, res.TrackErrors = track(ctx, opts.Tracker, p, res)
		log.Info("model evaluated", "pipeline", p.String(), "rmse", rmse,
			"train_rows", res.TrainRows, "val_rows", res.ValRows, "run_id", res.RunID,
			"track_errors", res.TrackErrors)
		results = append(results, res)
	}

	if opts.Store != nil {
		best := Best(results)
		if err := opts.Store.Save(ctx, opts.ModelName, best.Pipeline); err != nil {
			return results, errors.Wrapf(err, "save model %q", opts.ModelName)
		}
		log.Info("model saved", "name", opts.ModelName, "pipeline", best.Pipeline.String(), "rmse", best.RMSE)
	}
	return results, nil
}

// track reports one result best effort and returns the run id, empty when
// the run could not be opened, and the number of failed tracker calls. The
// logger already warns on each failure, so none of them is returned.
func track(ctx context.Context, l *tracking.Logger, p *pipeline.Pipeline, res Result) (string, int) {
	if l == nil {
		return "", 0
	}
	runID, err := l.StartRun(ctx)
	if err != nil {
		return "", 1
	}
	params := p.Params()
	params["train_rows"] = strconv.Itoa(res.TrainRows)
	params["val_rows"] = strconv.Itoa(res.ValRows)
	failed := 0
	if err := l.LogParams(ctx, runID, params); err != nil {
		failed++
	}
	if err := l.LogMetric(ctx, runID, MetricRMSE, res.RMSE); err != nil {
		failed++
	}
	return runID, failed
}

// Best returns the result with the lowest RMSE. Earlier results win ties.
func Best(results []Result) Result {
	best := Result{RMSE: math.Inf(1)}
	for _, r := range results {
		if r.RMSE < best.RMSE || best.Pipeline == nil {
			best = r
		}
	}
	return best
}
