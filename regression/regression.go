// Package regression implements the fare models fitted at the end of the
// pipeline.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"taxifare/models"
)

// Model names accepted by New.
const (
	Linear = "linear"
	Ridge  = "ridge"
	Lasso  = "lasso"

	RandomForest = "random_forest"
)

// Config selects a regression algorithm and its hyperparameters.
type Config struct {
	Name    string  `json:"name" mapstructure:"name"`
	Alpha   float64 `json:"alpha,omitempty" mapstructure:"alpha"`
	MaxIter int     `json:"max_iter,omitempty" mapstructure:"max_iter"`
	Tol     float64 `json:"tol,omitempty" mapstructure:"tol"`

	// Tree ensemble settings, zero means the default.
	NTrees          int   `json:"n_trees,omitempty" mapstructure:"n_trees"`
	MaxDepth        int   `json:"max_depth,omitempty" mapstructure:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split,omitempty" mapstructure:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf,omitempty" mapstructure:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features,omitempty" mapstructure:"max_features"`
	Seed            int64 `json:"seed,omitempty" mapstructure:"seed"`
}

// Regressor is a model fitted on a design matrix and a target vector.
type Regressor interface {
	Kind() string
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
	Params() map[string]string
}

// New builds an unfitted regressor from cfg.
func New(cfg Config) (Regressor, error) {
	switch cfg.Name {
	case Linear, "":
		return &LinearRegression{}, nil
	case Ridge:
		if cfg.Alpha < 0 {
			return nil, fmt.Errorf("%w: ridge alpha must be >= 0, got %v", models.ErrInvalidConfig, cfg.Alpha)
		}
		return &RidgeRegression{Alpha: cfg.Alpha}, nil
	case Lasso:
		if cfg.Alpha < 0 {
			return nil, fmt.Errorf("%w: lasso alpha must be >= 0, got %v", models.ErrInvalidConfig, cfg.Alpha)
		}
		l := &LassoRegression{Alpha: cfg.Alpha, MaxIter: cfg.MaxIter, Tol: cfg.Tol}
		if l.MaxIter <= 0 {
			l.MaxIter = 1000
		}
		if l.Tol <= 0 {
			l.Tol = 1e-4
		}
		return l, nil
	case RandomForest:
		return newRandomForest(cfg)
	}
	return nil, fmt.Errorf("%w: unknown model %q", models.ErrInvalidConfig, cfg.Name)
}

// linearModel holds the fitted coefficients shared by every regressor here.
type linearModel struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *linearModel) predict(X mat.Matrix) ([]float64, error) {
	if m.Coef == nil {
		return nil, models.ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(m.Coef) {
		return nil, fmt.Errorf("got %d features, model was fitted on %d", c, len(m.Coef))
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		v := m.Intercept
		for j := 0; j < c; j++ {
			v += X.At(i, j) * m.Coef[j]
		}
		out[i] = v
	}
	return out, nil
}

// centered validates X and y and returns X and y shifted to zero column
// means, together with those means.
func centered(X mat.Matrix, y []float64) (*mat.Dense, []float64, []float64, float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, nil, 0, fmt.Errorf("empty design matrix")
	}
	if r != len(y) {
		return nil, nil, nil, 0, fmt.Errorf("design matrix has %d rows, target has %d", r, len(y))
	}
	xc := mat.DenseCopyOf(X)
	xMean := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, xc)
		if !allFinite(col) {
			return nil, nil, nil, 0, fmt.Errorf("feature %d has non-finite values", j)
		}
		mean := floats.Sum(col) / float64(r)
		floats.AddConst(-mean, col)
		xc.SetCol(j, col)
		xMean[j] = mean
	}
	if !allFinite(y) {
		return nil, nil, nil, 0, fmt.Errorf("target has non-finite values")
	}
	yMean := floats.Sum(y) / float64(r)
	yc := make([]float64, r)
	copy(yc, y)
	floats.AddConst(-yMean, yc)
	return xc, yc, xMean, yMean, nil
}

func interceptFor(coef, xMean []float64, yMean float64) float64 {
	return yMean - floats.Dot(coef, xMean)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
