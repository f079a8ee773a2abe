package regression

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"taxifare/models"
)

// y = 3 + 2*x1 - x2
func linearData() (*mat.Dense, []float64) {
	X := mat.NewDense(8, 2, []float64{
		1, 2,
		2, 1,
		3, 5,
		4, 3,
		5, 8,
		6, 2,
		7, 7,
		8, 4,
	})
	y := make([]float64, 8)
	for i := range y {
		y[i] = 3 + 2*X.At(i, 0) - X.At(i, 1)
	}
	return X, y
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X, y := linearData()
	m := &LinearRegression{}
	require.NoError(t, m.Fit(X, y))

	assert.InDelta(t, 2.0, m.Coef[0], 1e-9)
	assert.InDelta(t, -1.0, m.Coef[1], 1e-9)
	assert.InDelta(t, 3.0, m.Intercept, 1e-9)

	pred, err := m.Predict(mat.NewDense(1, 2, []float64{10, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 22.0, pred[0], 1e-9)
}

func TestLinearRegressionRankDeficient(t *testing.T) {
	// two one-hot columns that always sum to one, like a dummy-encoded group
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
		0, 1,
	})
	y := []float64{10, 20, 10, 20}
	m := &LinearRegression{}
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred[i], 1e-9)
	}
}

func TestRidgeShrinksTowardZero(t *testing.T) {
	X, y := linearData()
	small := &RidgeRegression{Alpha: 1e-6}
	large := &RidgeRegression{Alpha: 1e3}
	require.NoError(t, small.Fit(X, y))
	require.NoError(t, large.Fit(X, y))

	assert.InDelta(t, 2.0, small.Coef[0], 1e-3)
	assert.Less(t, math.Abs(large.Coef[0]), math.Abs(small.Coef[0]))
}

func TestLassoZeroesWeakFeatures(t *testing.T) {
	X, y := linearData()
	m, err := New(Config{Name: Lasso, Alpha: 100})
	require.NoError(t, err)
	require.NoError(t, m.Fit(X, y))

	lasso := m.(*LassoRegression)
	assert.Equal(t, []float64{0, 0}, lasso.Coef)
	assert.InDelta(t, 3+2*4.5-4, lasso.Intercept, 1e-9)
}

func TestLassoSmallAlphaApproachesOLS(t *testing.T) {
	X, y := linearData()
	m := &LassoRegression{Alpha: 1e-8, MaxIter: 10000, Tol: 1e-12}
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, 2.0, m.Coef[0], 1e-4)
	assert.InDelta(t, -1.0, m.Coef[1], 1e-4)
}

func TestFitRejectsBadInput(t *testing.T) {
	X, y := linearData()
	m := &LinearRegression{}
	assert.Error(t, m.Fit(X, y[:3]))

	X.Set(0, 0, math.NaN())
	assert.Error(t, m.Fit(X, y))
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := (&RidgeRegression{}).Predict(mat.NewDense(1, 1, []float64{1}))
	assert.ErrorIs(t, err, models.ErrNotFitted)
}

func TestNew(t *testing.T) {
	for _, name := range []string{Linear, Ridge, Lasso, RandomForest} {
		m, err := New(Config{Name: name, Alpha: 0.05})
		require.NoError(t, err)
		assert.Equal(t, name, m.Kind())
		assert.Equal(t, name, m.Params()["model"])
	}
	_, err := New(Config{Name: "svr"})
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
	_, err = New(Config{Name: Ridge, Alpha: -1})
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
	_, err = New(Config{Name: RandomForest, MaxDepth: -1})
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

// stepData is y = 10 when x1 > 5 and 0 otherwise, with x2 as noise.
func stepData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(3))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, rng.Float64()*10)
		X.Set(i, 1, rng.Float64())
		if X.At(i, 0) > 5 {
			y[i] = 10
		}
	}
	return X, y
}

func TestRandomForestDefaults(t *testing.T) {
	m, err := New(Config{Name: RandomForest})
	require.NoError(t, err)
	rf := m.(*RandomForestRegression)
	assert.Equal(t, 50, rf.NTrees)
	assert.Equal(t, 10, rf.MaxDepth)
	assert.Equal(t, 2, rf.MinSamplesSplit)
	assert.Equal(t, 1, rf.MinSamplesLeaf)
}

func TestRandomForestLearnsStep(t *testing.T) {
	X, y := stepData(200)
	m, err := New(Config{Name: RandomForest, NTrees: 20, MaxDepth: 4, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(mat.NewDense(2, 2, []float64{
		2, 0.5,
		8, 0.5,
	}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, pred[0], 1)
	assert.InDelta(t, 10.0, pred[1], 1)
}

func TestRandomForestSeededReproducible(t *testing.T) {
	X, y := stepData(150)
	fit := func(seed int64) []float64 {
		m, err := New(Config{Name: RandomForest, NTrees: 10, MaxFeatures: 1, Seed: seed})
		require.NoError(t, err)
		require.NoError(t, m.Fit(X, y))
		pred, err := m.Predict(X)
		require.NoError(t, err)
		return pred
	}
	first := fit(42)
	assert.Equal(t, first, fit(42))
	assert.NotEqual(t, first, fit(43))
}

func TestRandomForestMinSamplesLeaf(t *testing.T) {
	X, y := stepData(40)
	m := &RandomForestRegression{NTrees: 1, MaxDepth: 20, MinSamplesSplit: 2, MinSamplesLeaf: 40}
	require.NoError(t, m.Fit(X, y))
	require.Len(t, m.Trees, 1)
	assert.Nil(t, m.Trees[0].Left)
}

func TestRandomForestRejectsBadInput(t *testing.T) {
	X, y := stepData(10)
	m, err := New(Config{Name: RandomForest, NTrees: 2})
	require.NoError(t, err)

	_, err = m.Predict(X)
	assert.ErrorIs(t, err, models.ErrNotFitted)

	assert.Error(t, m.Fit(X, y[:3]))
	X.Set(0, 1, math.Inf(1))
	assert.Error(t, m.Fit(X, y))

	X.Set(0, 1, 0)
	require.NoError(t, m.Fit(X, y))
	_, err = m.Predict(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}
