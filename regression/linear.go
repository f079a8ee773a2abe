package regression

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// rcond is the relative singular value cutoff for the least squares rank.
const rcond = 1e-10

// LinearRegression is ordinary least squares with an intercept. Rank
// deficient designs (one-hot groups) get the minimum norm solution.
type LinearRegression struct {
	linearModel
}

func (m *LinearRegression) Kind() string { return Linear }

func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	xc, yc, xMean, yMean, err := centered(X, y)
	if err != nil {
		return err
	}
	var svd mat.SVD
	if !svd.Factorize(xc, mat.SVDThin) {
		return fmt.Errorf("svd factorization failed")
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		m.Coef = make([]float64, len(xMean))
		m.Intercept = yMean
		return nil
	}
	var w mat.Dense
	svd.SolveTo(&w, mat.NewDense(len(yc), 1, yc), rank)
	coef := mat.Col(nil, 0, &w)
	m.Coef = coef
	m.Intercept = interceptFor(coef, xMean, yMean)
	return nil
}

func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	return m.predict(X)
}

func (m *LinearRegression) Params() map[string]string {
	return map[string]string{"model": Linear, "fit_intercept": strconv.FormatBool(true)}
}

// RidgeRegression is least squares with an L2 penalty Alpha*||w||^2.
type RidgeRegression struct {
	linearModel
	Alpha float64 `json:"alpha"`
}

func (m *RidgeRegression) Kind() string { return Ridge }

func (m *RidgeRegression) Fit(X mat.Matrix, y []float64) error {
	xc, yc, xMean, yMean, err := centered(X, y)
	if err != nil {
		return err
	}
	_, c := xc.Dims()
	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}
	var xty mat.VecDense
	xty.MulVec(xc.T(), mat.NewVecDense(len(yc), yc))

	var w mat.VecDense
	var chol mat.Cholesky
	if m.Alpha > 0 && chol.Factorize(&gram) {
		if err := chol.SolveVecTo(&w, &xty); err != nil {
			return fmt.Errorf("ridge solve: %w", err)
		}
	} else {
		// alpha == 0 or numerically singular: fall back to least squares
		ols := &LinearRegression{}
		if err := ols.Fit(X, y); err != nil {
			return err
		}
		m.linearModel = ols.linearModel
		return nil
	}
	coef := make([]float64, c)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	m.Coef = coef
	m.Intercept = interceptFor(coef, xMean, yMean)
	return nil
}

func (m *RidgeRegression) Predict(X mat.Matrix) ([]float64, error) {
	return m.predict(X)
}

func (m *RidgeRegression) Params() map[string]string {
	return map[string]string{"model": Ridge, "alpha": strconv.FormatFloat(m.Alpha, 'g', -1, 64)}
}
