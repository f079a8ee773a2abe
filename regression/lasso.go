package regression

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LassoRegression minimizes (1/2n)*||y - Xw||^2 + Alpha*||w||_1 by cyclic
// coordinate descent.
type LassoRegression struct {
	linearModel
	Alpha   float64 `json:"alpha"`
	MaxIter int     `json:"max_iter"`
	Tol     float64 `json:"tol"`
	NIter   int     `json:"n_iter"`
}

func (m *LassoRegression) Kind() string { return Lasso }

func (m *LassoRegression) Fit(X mat.Matrix, y []float64) error {
	xc, yc, xMean, yMean, err := centered(X, y)
	if err != nil {
		return err
	}
	n, c := xc.Dims()
	cols := make([][]float64, c)
	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = mat.Col(nil, j, xc)
		norms[j] = floats.Dot(cols[j], cols[j])
	}
	w := make([]float64, c)
	resid := append([]float64(nil), yc...)
	penalty := m.Alpha * float64(n)

	m.NIter = 0
	for iter := 0; iter < m.MaxIter; iter++ {
		m.NIter = iter + 1
		maxDelta, maxW := 0.0, 0.0
		for j := 0; j < c; j++ {
			if norms[j] == 0 {
				continue
			}
			old := w[j]
			if old != 0 {
				floats.AddScaled(resid, old, cols[j])
			}
			rho := floats.Dot(cols[j], resid)
			w[j] = softThreshold(rho, penalty) / norms[j]
			if w[j] != 0 {
				floats.AddScaled(resid, -w[j], cols[j])
			}
			maxDelta = math.Max(maxDelta, math.Abs(w[j]-old))
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if maxW == 0 || maxDelta/maxW < m.Tol {
			break
		}
	}
	m.Coef = w
	m.Intercept = interceptFor(w, xMean, yMean)
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	}
	return 0
}

func (m *LassoRegression) Predict(X mat.Matrix) ([]float64, error) {
	return m.predict(X)
}

func (m *LassoRegression) Params() map[string]string {
	return map[string]string{
		"model":    Lasso,
		"alpha":    strconv.FormatFloat(m.Alpha, 'g', -1, 64),
		"max_iter": strconv.Itoa(m.MaxIter),
		"tol":      strconv.FormatFloat(m.Tol, 'g', -1, 64),
	}
}
