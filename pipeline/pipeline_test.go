package pipeline

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/data"
	"taxifare/encoders"
	"taxifare/models"
	"taxifare/regression"
)

func fitted(t *testing.T, cfg Config, n int) (*Pipeline, models.Dataset) {
	t.Helper()
	ds := data.Synthetic(n, 7)
	p, err := Assemble(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Fit(ds.Trips, ds.Targets()))
	return p, ds
}

func TestAssembleBlocksPerMode(t *testing.T) {
	cases := []struct {
		mode DistMode
		want []string
	}{
		{DistModeDist, []string{BlockDistance, BlockTime}},
		{DistModeToCenter, []string{BlockDistanceToCenter, BlockTime}},
		{DistModeBoth, []string{BlockDistance, BlockDistanceToCenter, BlockTime}},
		{"", []string{BlockDistance, BlockDistanceToCenter, BlockTime}},
	}
	for _, c := range cases {
		p, err := Assemble(Config{DistMode: c.mode})
		require.NoError(t, err, c.mode)
		assert.Equal(t, c.want, p.Blocks(), c.mode)
		assert.False(t, p.Fitted())
		assert.Empty(t, p.FeatureNames())
	}
}

func TestTimeBlockIdenticalAcrossModes(t *testing.T) {
	var ref *Block
	for _, mode := range []DistMode{DistModeDist, DistModeToCenter, DistModeBoth} {
		p, err := Assemble(Config{DistMode: mode})
		require.NoError(t, err)
		b, ok := p.Block(BlockTime)
		require.True(t, ok)
		if ref == nil {
			ref = b
			continue
		}
		assert.Equal(t, ref, b, mode)
	}
	require.Len(t, ref.Steps, 2)
	assert.Equal(t, encoders.KindTimeFeatures, ref.Steps[0].Kind())
	assert.Equal(t, encoders.KindOneHot, ref.Steps[1].Kind())
	assert.Equal(t, []string{models.ColPickupDatetime}, ref.Columns)
}

func TestAssembleReturnsFreshPipelines(t *testing.T) {
	a, err := Assemble(Config{})
	require.NoError(t, err)
	b, err := Assemble(Config{})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Model(), b.Model())
}

func TestAssembleRejectsBadConfig(t *testing.T) {
	_, err := Assemble(Config{DistMode: "manhattan"})
	assert.ErrorIs(t, err, models.ErrInvalidConfig)

	_, err = Assemble(Config{Model: regression.Config{Name: "forest"}})
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestFitPredict(t *testing.T) {
	p, ds := fitted(t, Config{DistMode: DistModeBoth}, 300)
	assert.True(t, p.Fitted())

	names := p.FeatureNames()
	assert.Contains(t, names, "distance__distance")
	assert.Contains(t, names, "distance_to_center__pickup_distance_to_center")
	assert.Contains(t, names, "distance_to_center__dropoff_distance_to_center")
	assert.Contains(t, names, "time__hour_13")
	for _, n := range names {
		prefix, _, ok := strings.Cut(n, "__")
		assert.True(t, ok, n)
		assert.Contains(t, p.Blocks(), prefix)
	}

	pred, err := p.Predict(ds.Trips[:10])
	require.NoError(t, err)
	require.Len(t, pred, 10)
	for _, v := range pred {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestDistModeDistDropsCenterFeatures(t *testing.T) {
	p, _ := fitted(t, Config{DistMode: DistModeDist}, 100)
	for _, n := range p.FeatureNames() {
		assert.False(t, strings.HasPrefix(n, BlockDistanceToCenter+"__"), n)
	}
	assert.Contains(t, p.FeatureNames(), "distance__distance")
}

func TestPredictUnseenCategory(t *testing.T) {
	p, ds := fitted(t, Config{}, 100)

	trip := ds.Trips[0]
	trip.PickupDatetime = "2031-02-03 04:05:06 UTC"
	union, err := p.Transform(models.Trips{trip})
	require.NoError(t, err)
	for _, n := range union.Columns() {
		if strings.HasPrefix(n, "time__year_") {
			v, err := union.Float(n, 0)
			require.NoError(t, err)
			assert.Zero(t, v, n)
		}
	}

	pred, err := p.Predict(models.Trips{trip})
	require.NoError(t, err)
	assert.Len(t, pred, 1)
}

func TestPredictEmptyFrame(t *testing.T) {
	p, _ := fitted(t, Config{}, 50)
	pred, err := p.Predict(models.Trips{})
	require.NoError(t, err)
	assert.Empty(t, pred)
}

func TestFitFailures(t *testing.T) {
	ds := data.Synthetic(50, 1)

	p, err := Assemble(Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Fit(models.Trips{}, nil), models.ErrFit)
	assert.ErrorIs(t, p.Fit(ds.Trips, ds.Targets()[:10]), models.ErrFit)

	require.NoError(t, p.Fit(ds.Trips, ds.Targets()))
	assert.ErrorIs(t, p.Fit(ds.Trips, ds.Targets()), models.ErrFit)

	p, err = Assemble(Config{TimeZone: "Mars/Olympus_Mons"})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Fit(ds.Trips, ds.Targets()), models.ErrFit)

	naive := append(models.Trips{}, ds.Trips...)
	naive[4].PickupDatetime = "2013-07-06 17:18:00"
	p, err = Assemble(Config{})
	require.NoError(t, err)
	err = p.Fit(naive, ds.Targets())
	assert.ErrorIs(t, err, models.ErrFit)
	assert.ErrorIs(t, err, models.ErrAmbiguousTimestamp)
	assert.False(t, p.Fitted())
}

func TestPredictBeforeFit(t *testing.T) {
	p, err := Assemble(Config{})
	require.NoError(t, err)
	_, err = p.Predict(data.Synthetic(3, 1).Trips)
	assert.ErrorIs(t, err, models.ErrNotFitted)
}

func TestParams(t *testing.T) {
	p, err := Assemble(Config{
		DistMode: DistModeDist,
		Model:    regression.Config{Name: regression.Ridge, Alpha: 0.05},
	})
	require.NoError(t, err)

	params := p.Params()
	assert.Equal(t, "dist", params["dist_mode"])
	assert.Equal(t, "ridge", params["model"])
	assert.Equal(t, "0.05", params["alpha"])
	assert.Equal(t, "distance,time", params["blocks"])
	assert.Equal(t, encoders.DefaultTimeZoneName, params["time_zone"])
	assert.Equal(t, "ridge(alpha=0.05)/dist", p.String())
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, cfg := range []Config{
		{DistMode: DistModeBoth},
		{DistMode: DistModeToCenter, Model: regression.Config{Name: regression.Ridge, Alpha: 1}},
		{DistMode: DistModeDist, Model: regression.Config{Name: regression.Lasso, Alpha: 0.01}},
		{DistMode: DistModeBoth, Model: regression.Config{Name: regression.RandomForest, NTrees: 5, MaxDepth: 6, Seed: 9}},
	} {
		p, ds := fitted(t, cfg, 200)
		want, err := p.Predict(ds.Trips[:20])
		require.NoError(t, err)

		raw, err := json.Marshal(p)
		require.NoError(t, err)

		var restored Pipeline
		require.NoError(t, json.Unmarshal(raw, &restored))
		assert.True(t, restored.Fitted())
		assert.Equal(t, p.Blocks(), restored.Blocks())
		assert.Equal(t, p.FeatureNames(), restored.FeatureNames())
		assert.Equal(t, p.Params(), restored.Params())

		got, err := restored.Predict(ds.Trips[:20])
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-9, p.String())
	}
}

func TestSnapshotKindMismatch(t *testing.T) {
	p, _ := fitted(t, Config{}, 50)
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	bad := strings.Replace(string(raw), `"kind":"one_hot"`, `"kind":"standard_scaler"`, 1)
	require.NotEqual(t, string(raw), bad)
	var restored Pipeline
	assert.ErrorIs(t, json.Unmarshal([]byte(bad), &restored), models.ErrCorruptArtifact)

	bad = strings.Replace(string(raw), `"kind":"linear"`, `"kind":"lasso"`, 1)
	require.NotEqual(t, string(raw), bad)
	assert.ErrorIs(t, json.Unmarshal([]byte(bad), &restored), models.ErrCorruptArtifact)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"config":{"dist_mode":"nope"}}`), &restored), models.ErrCorruptArtifact)
}
