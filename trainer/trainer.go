// Package trainer fits assembled pipelines and scores them on a held-out
// split.
package trainer

import (
	"fmt"
	"math"

	"taxifare/models"
	"taxifare/pipeline"
)

// Run fits every block of p and the final model on the training split in a
// single pass and returns the fitted pipeline.
func Run(p *pipeline.Pipeline, X models.Frame, y []float64) (*pipeline.Pipeline, error) {
	if err := p.Fit(X, y); err != nil {
		return nil, err
	}
	return p, nil
}

// Evaluate predicts X and returns the RMSE against y.
func Evaluate(p *pipeline.Pipeline, X models.Frame, y []float64) (float64, error) {
	if !p.Fitted() {
		return 0, fmt.Errorf("%w: %w", models.ErrEvaluation, models.ErrNotFitted)
	}
	if X.Len() != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", models.ErrEvaluation, X.Len(), len(y))
	}
	pred, err := p.Predict(X)
	if err != nil {
		return 0, fmt.Errorf("%w: predict: %w", models.ErrEvaluation, err)
	}
	return RMSE(pred, y)
}

// RMSE is sqrt(mean((pred-truth)^2)) over all rows.
func RMSE(pred, truth []float64) (float64, error) {
	if len(pred) != len(truth) {
		return 0, fmt.Errorf("%w: %d predictions for %d targets", models.ErrEvaluation, len(pred), len(truth))
	}
	if len(pred) == 0 {
		return 0, fmt.Errorf("%w: empty validation set", models.ErrEvaluation)
	}
	var sum float64
	for i := range pred {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred))), nil
}
