package regression

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/mat"

	"taxifare/models"
)

// RandomForestRegression averages regression trees grown on bootstrap
// samples. Each split considers MaxFeatures randomly chosen columns, all of
// them when MaxFeatures is zero. Trees are seeded from Seed, so two fits on
// the same data give the same forest.
type RandomForestRegression struct {
	NTrees          int   `json:"n_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"`
	Seed            int64 `json:"seed"`

	NFeatures int         `json:"n_features"`
	Trees     []*treeNode `json:"trees"`
}

// treeNode is a split when Left and Right are set and a leaf otherwise.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Value     float64   `json:"v"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

func (n *treeNode) predict(row []float64) float64 {
	for n.Left != nil {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func newRandomForest(cfg Config) (*RandomForestRegression, error) {
	m := &RandomForestRegression{
		NTrees:          cfg.NTrees,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
		MaxFeatures:     cfg.MaxFeatures,
		Seed:            cfg.Seed,
	}
	if m.NTrees < 0 || m.MaxDepth < 0 || m.MinSamplesSplit < 0 || m.MinSamplesLeaf < 0 || m.MaxFeatures < 0 {
		return nil, fmt.Errorf("%w: random_forest parameters must be >= 0", models.ErrInvalidConfig)
	}
	if m.NTrees == 0 {
		m.NTrees = 50
	}
	if m.MaxDepth == 0 {
		m.MaxDepth = 10
	}
	if m.MinSamplesSplit < 2 {
		m.MinSamplesSplit = 2
	}
	if m.MinSamplesLeaf == 0 {
		m.MinSamplesLeaf = 1
	}
	return m, nil
}

func (m *RandomForestRegression) Kind() string { return RandomForest }

func (m *RandomForestRegression) Fit(X mat.Matrix, y []float64) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("empty design matrix")
	}
	if r != len(y) {
		return fmt.Errorf("design matrix has %d rows, target has %d", r, len(y))
	}
	if !allFinite(y) {
		return fmt.Errorf("target has non-finite values")
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
		if !allFinite(rows[i]) {
			return fmt.Errorf("row %d has non-finite values", i)
		}
	}

	// Tree seeds are drawn up front so the result does not depend on
	// goroutine scheduling.
	rng := rand.New(rand.NewSource(m.Seed))
	seeds := make([]int64, m.NTrees)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	trees := make([]*treeNode, m.NTrees)
	var wg sync.WaitGroup
	for i := range trees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := &grower{
				forest: m,
				rows:   rows,
				y:      y,
				rng:    rand.New(rand.NewSource(seeds[i])),
				cols:   make([]int, c),
			}
			for j := range g.cols {
				g.cols[j] = j
			}
			trees[i] = g.grow(g.bootstrap(), 0)
		}(i)
	}
	wg.Wait()

	m.NFeatures = c
	m.Trees = trees
	return nil
}

func (m *RandomForestRegression) Predict(X mat.Matrix) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, models.ErrNotFitted
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, fmt.Errorf("got %d features, model was fitted on %d", c, m.NFeatures)
	}
	out := make([]float64, r)
	row := make([]float64, c)
	for i := range out {
		mat.Row(row, i, X)
		sum := 0.0
		for _, t := range m.Trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out, nil
}

func (m *RandomForestRegression) Params() map[string]string {
	return map[string]string{
		"model":             RandomForest,
		"n_trees":           strconv.Itoa(m.NTrees),
		"max_depth":         strconv.Itoa(m.MaxDepth),
		"min_samples_split": strconv.Itoa(m.MinSamplesSplit),
		"min_samples_leaf":  strconv.Itoa(m.MinSamplesLeaf),
		"max_features":      strconv.Itoa(m.MaxFeatures),
		"seed":              strconv.FormatInt(m.Seed, 10),
	}
}

// grower builds one tree. It is not safe for concurrent use.
type grower struct {
	forest *RandomForestRegression
	rows   [][]float64
	y      []float64
	rng    *rand.Rand
	cols   []int
}

// bootstrap draws len(rows) row indices with replacement.
func (g *grower) bootstrap() []int {
	n := len(g.rows)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = g.rng.Intn(n)
	}
	return idx
}

// candidates returns the columns a split may use.
func (g *grower) candidates() []int {
	k := g.forest.MaxFeatures
	if k == 0 || k >= len(g.cols) {
		return g.cols
	}
	g.rng.Shuffle(len(g.cols), func(i, j int) {
		g.cols[i], g.cols[j] = g.cols[j], g.cols[i]
	})
	return g.cols[:k]
}

func (g *grower) grow(idx []int, depth int) *treeNode {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += g.y[i]
		sumSq += g.y[i] * g.y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	node := &treeNode{Value: mean}
	f := g.forest
	if depth >= f.MaxDepth || len(idx) < f.MinSamplesSplit || sumSq/n-mean*mean < 1e-7 {
		return node
	}

	feature, threshold, ok := g.split(idx, sum, sumSq)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if g.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Feature = feature
	node.Threshold = threshold
	node.Left = g.grow(left, depth+1)
	node.Right = g.grow(right, depth+1)
	return node
}

// split finds the column and threshold with the largest drop in summed
// squared error, honoring MinSamplesLeaf on both sides. Thresholds are
// midpoints between consecutive distinct values.
func (g *grower) split(idx []int, sum, sumSq float64) (int, float64, bool) {
	n := len(idx)
	minLeaf := g.forest.MinSamplesLeaf
	parent := sumSq - sum*sum/float64(n)
	best, bestFeature, bestThreshold := parent-1e-12, -1, 0.0

	sorted := make([]int, n)
	for _, j := range g.candidates() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return g.rows[sorted[a]][j] < g.rows[sorted[b]][j] })
		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := g.y[sorted[k]]
			leftSum += v
			leftSq += v * v
			lo, hi := g.rows[sorted[k]][j], g.rows[sorted[k+1]][j]
			if lo == hi || k+1 < minLeaf || n-k-1 < minLeaf {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			rightSum, rightSq := sum-leftSum, sumSq-leftSq
			sse := leftSq - leftSum*leftSum/nl + rightSq - rightSum*rightSum/nr
			if sse < best {
				best, bestFeature, bestThreshold = sse, j, (lo+hi)/2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
