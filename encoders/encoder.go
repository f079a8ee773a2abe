// Package encoders holds the feature transformers composed by the pipeline
// assembler: time parts, haversine distances, scaling and one-hot encoding.
package encoders

import (
	"fmt"

	"taxifare/models"
)

// Encoder kinds. The kind tags a step in a serialized pipeline.
const (
	KindTimeFeatures     = "time_features"
	KindDistance         = "distance"
	KindDistanceToCenter = "distance_to_center"
	KindStandardScaler   = "standard_scaler"
	KindOneHot           = "one_hot"
)

// Encoder learns parameters from a frame and derives a feature table from it.
// Fit must be called before Transform for encoders that learn state.
type Encoder interface {
	Kind() string
	Fit(X models.Frame, y []float64) error
	Transform(X models.Frame) (*models.Table, error)
}

// New returns an empty encoder of the given kind, ready to have its state
// decoded into it.
func New(kind string) (Encoder, error) {
	switch kind {
	case KindTimeFeatures:
		return &TimeFeaturesEncoder{}, nil
	case KindDistance:
		return &DistanceTransformer{}, nil
	case KindDistanceToCenter:
		return &DistanceToCenter{}, nil
	case KindStandardScaler:
		return &StandardScaler{}, nil
	case KindOneHot:
		return &OneHotEncoder{}, nil
	}
	return nil, fmt.Errorf("unknown encoder kind %q", kind)
}

// FitTransform fits e on X and transforms X with it.
func FitTransform(e Encoder, X models.Frame, y []float64) (*models.Table, error) {
	if err := e.Fit(X, y); err != nil {
		return nil, err
	}
	return e.Transform(X)
}
