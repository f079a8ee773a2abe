package encoders

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"taxifare/models"
)

// OneHotEncoder expands each column into one indicator column per value seen
// during Fit. Values not seen during Fit produce an all-zero row.
type OneHotEncoder struct {
	Columns    []string    `json:"columns"`
	Categories [][]float64 `json:"categories"`
}

func NewOneHotEncoder() *OneHotEncoder { return &OneHotEncoder{} }

func (e *OneHotEncoder) Kind() string { return KindOneHot }

func (e *OneHotEncoder) Fit(X models.Frame, y []float64) error {
	if X.Len() == 0 {
		return fmt.Errorf("one-hot encoder: no rows to fit")
	}
	cols := X.Columns()
	cats := make([][]float64, len(cols))
	for j, col := range cols {
		seen := make(map[float64]struct{})
		for i := 0; i < X.Len(); i++ {
			v, err := X.Float(col, i)
			if err != nil {
				return err
			}
			if math.IsNaN(v) {
				continue
			}
			seen[v] = struct{}{}
		}
		values := make([]float64, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Float64s(values)
		cats[j] = values
	}
	e.Columns, e.Categories = cols, cats
	return nil
}

func (e *OneHotEncoder) Transform(X models.Frame) (*models.Table, error) {
	if e.Columns == nil {
		return nil, fmt.Errorf("one-hot encoder: %w", models.ErrNotFitted)
	}
	n := X.Len()
	out := models.NewTable(n)
	for j, col := range e.Columns {
		indicators := make([][]float64, len(e.Categories[j]))
		for k := range indicators {
			indicators[k] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			v, err := X.Float(col, i)
			if err != nil {
				return nil, err
			}
			k := sort.SearchFloat64s(e.Categories[j], v)
			if k < len(e.Categories[j]) && e.Categories[j][k] == v {
				indicators[k][i] = 1
			}
		}
		for k, cat := range e.Categories[j] {
			out.Set(col+"_"+strconv.FormatFloat(cat, 'f', -1, 64), indicators[k])
		}
	}
	return out, nil
}
