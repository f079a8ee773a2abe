// Package tracking records run parameters and metrics with an experiment
// tracker. Failures are reported but never abort training.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"taxifare/models"
)

// Client is the tracker collaborator.
type Client interface {
	CreateExperiment(ctx context.Context, name string) (string, error)
	GetExperimentByName(ctx context.Context, name string) (string, error)
	CreateRun(ctx context.Context, experimentID string) (string, error)
	LogParam(ctx context.Context, runID, key, value string) error
	LogMetric(ctx context.Context, runID, key string, value float64, at time.Time) error
}

// Logger reports runs under one named experiment. The experiment id is
// resolved on first use and cached.
type Logger struct {
	client     Client
	experiment string
	log        *slog.Logger
	now        func() time.Time

	mu           sync.Mutex
	experimentID string
}

func NewLogger(client Client, experiment string, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{client: client, experiment: experiment, log: log, now: time.Now}
}

// Experiment returns the configured experiment name.
func (l *Logger) Experiment() string { return l.experiment }

// ExperimentID creates the experiment, or looks it up by name when creation
// fails because it already exists.
func (l *Logger) ExperimentID(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.experimentID != "" {
		return l.experimentID, nil
	}
	id, createErr := l.client.CreateExperiment(ctx, l.experiment)
	if createErr != nil {
		var err error
		if id, err = l.client.GetExperimentByName(ctx, l.experiment); err != nil {
			return "", l.fail("resolve experiment", multierror.Append(createErr, err))
		}
	}
	l.experimentID = id
	return id, nil
}

// StartRun opens a new run under the experiment.
func (l *Logger) StartRun(ctx context.Context) (string, error) {
	expID, err := l.ExperimentID(ctx)
	if err != nil {
		return "", err
	}
	runID, err := l.client.CreateRun(ctx, expID)
	if err != nil {
		return "", l.fail("create run", err)
	}
	l.log.Info("tracking run started", "experiment", l.experiment, "run_id", runID)
	return runID, nil
}

// LogParams records every parameter, in key order. It keeps going past
// individual failures and reports them together.
func (l *Logger) LogParams(ctx context.Context, runID string, params map[string]string) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var merr *multierror.Error
	for _, k := range keys {
		if err := l.client.LogParam(ctx, runID, k, params[k]); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("param %s: %w", k, err))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return l.fail("log params", err)
	}
	return nil
}

func (l *Logger) LogMetric(ctx context.Context, runID, name string, value float64) error {
	if err := l.client.LogMetric(ctx, runID, name, value, l.now()); err != nil {
		return l.fail("log metric "+name, err)
	}
	return nil
}

func (l *Logger) fail(op string, err error) error {
	l.log.Warn("experiment tracking failed", "op", op, "experiment", l.experiment, "error", err)
	return fmt.Errorf("%w: %s: %w", models.ErrLogging, op, err)
}

// NopClient accepts and discards everything.
type NopClient struct{}

func (NopClient) CreateExperiment(context.Context, string) (string, error) { return "0", nil }
func (NopClient) GetExperimentByName(context.Context, string) (string, error) { return "0", nil }
func (NopClient) CreateRun(context.Context, string) (string, error) { return "nop", nil }
func (NopClient) LogParam(context.Context, string, string, string) error { return nil }
func (NopClient) LogMetric(context.Context, string, string, float64, time.Time) error {
	return nil
}
