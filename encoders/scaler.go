package encoders

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"taxifare/models"
)

// StandardScaler centers each column on its mean and divides by its
// population standard deviation. NaN values are ignored when fitting and
// passed through when transforming.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Kind() string { return KindStandardScaler }

func (s *StandardScaler) Fit(X models.Frame, y []float64) error {
	if X.Len() == 0 {
		return fmt.Errorf("standard scaler: no rows to fit")
	}
	cols := X.Columns()
	mean := make([]float64, len(cols))
	scale := make([]float64, len(cols))
	for j, col := range cols {
		values := make([]float64, 0, X.Len())
		for i := 0; i < X.Len(); i++ {
			v, err := X.Float(col, i)
			if err != nil {
				return err
			}
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		mean[j], scale[j] = 0, 1
		if len(values) == 0 {
			continue
		}
		m, std := stat.PopMeanStdDev(values, nil)
		mean[j] = m
		if std > 0 {
			scale[j] = std
		}
	}
	s.Columns, s.Mean, s.Scale = cols, mean, scale
	return nil
}

func (s *StandardScaler) Transform(X models.Frame) (*models.Table, error) {
	if s.Columns == nil {
		return nil, fmt.Errorf("standard scaler: %w", models.ErrNotFitted)
	}
	out := models.NewTable(X.Len())
	for j, col := range s.Columns {
		scaled := make([]float64, X.Len())
		for i := range scaled {
			v, err := X.Float(col, i)
			if err != nil {
				return nil, err
			}
			scaled[i] = (v - s.Mean[j]) / s.Scale[j]
		}
		out.Set(col, scaled)
	}
	return out, nil
}
