package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformPoints(rng *rand.Rand, n, dim int) []model.FeatureVector {
	X := make([]model.FeatureVector, n)
	for i := range X {
		X[i] = make(model.FeatureVector, dim)
		for j := range X[i] {
			X[i][j] = rng.Float64()
		}
	}
	return X
}

func TestMetric_Distance(t *testing.T) {
	a := model.FeatureVector{0, 0}
	b := model.FeatureVector{3, 4}
	assert.InDelta(t, 5.0, MetricEuclidean.Distance(a, b), 1e-12)
	assert.InDelta(t, 7.0, MetricManhattan.Distance(a, b), 1e-12)
	assert.InDelta(t, 0.0, MetricCosine.Distance(b, model.FeatureVector{6, 8}), 1e-12)
	assert.InDelta(t, 1.0, MetricCosine.Distance(a, b), 1e-12, "zero vector has no direction")
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
		err  bool
	}{
		{"", MetricEuclidean, false},
		{"l2", MetricEuclidean, false},
		{"manhattan", MetricManhattan, false},
		{"cosine", MetricCosine, false},
		{"hamming", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitDensity_Outliers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	X := uniformPoints(rng, 95, 2)
	outliers := []model.FeatureVector{{10, 10}, {12, 12}, {9, 11}, {10, 12}, {11, 9}}
	X = append(X, outliers...)

	labels, err := FitDensity(X, 0.5, 5, MetricEuclidean)
	require.NoError(t, err)
	require.Len(t, labels, 100)

	s := Summarize(labels)
	assert.GreaterOrEqual(t, s.Noise, 5)
	for i := 95; i < 100; i++ {
		assert.Equal(t, model.NoiseLabel, labels[i], "outlier %d", i)
	}
	assert.NotContains(t, s.Sizes, model.NoiseLabel)
}

func TestFitDensity_ClusterProperty(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			X := uniformPoints(rng, 60, 3)
			const eps, minPoints = 0.35, 4

			labels, err := FitDensity(X, eps, minPoints, MetricEuclidean)
			require.NoError(t, err)

			// Every cluster holds at least one core point, and a core point
			// plus its neighbours make up at least minPoints+1 connected
			// members.
			hasCore := map[int]bool{}
			for i, l := range labels {
				if l == model.NoiseLabel {
					continue
				}
				require.GreaterOrEqual(t, l, 0)
				n := 0
				for j := range X {
					if j != i && MetricEuclidean.Distance(X[i], X[j]) <= eps {
						n++
					}
				}
				if n >= minPoints {
					hasCore[l] = true
				}
			}
			for id := range Summarize(labels).Sizes {
				assert.True(t, hasCore[id], "cluster %d has no core point", id)
			}
		})
	}
}

func TestFitDensity_SeparatedBlobs(t *testing.T) {
	X := []model.FeatureVector{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1},
		{5, 5}, {5.1, 5}, {5, 5.1}, {5.1, 5.1},
		{20, 20},
	}
	labels, err := FitDensity(X, 0.2, 3, MetricEuclidean)
	require.NoError(t, err)
	assert.Equal(t, model.ClusterAssignment{0, 0, 0, 0, 1, 1, 1, 1, model.NoiseLabel}, labels)
}

func TestFitDensity_InvalidConfig(t *testing.T) {
	X := []model.FeatureVector{{0}, {1}}
	for _, eps := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		_, err := FitDensity(X, eps, 3, MetricEuclidean)
		var cfgErr *model.ConfigError
		require.True(t, errors.As(err, &cfgErr), "eps=%v", eps)
		assert.Equal(t, "eps", cfgErr.Field)
	}

	_, err := FitDensity(X, 1, 0, MetricEuclidean)
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "min_points", cfgErr.Field)
}

func TestFitDensity_RaggedRows(t *testing.T) {
	_, err := FitDensity([]model.FeatureVector{{0, 1}, {1}}, 1, 1, MetricEuclidean)
	var dimErr *model.DimensionMismatchError
	assert.True(t, errors.As(err, &dimErr))
}

func TestFitHierarchical_ExactlyK(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X := uniformPoints(rng, 25, 4)
	for _, linkage := range []Linkage{LinkageSingle, LinkageComplete, LinkageAverage} {
		for k := 1; k <= len(X); k++ {
			t.Run(fmt.Sprintf("%s/k=%d", linkage, k), func(t *testing.T) {
				labels, err := FitHierarchical(X, linkage, k, MetricEuclidean)
				require.NoError(t, err)
				require.Len(t, labels, len(X))

				distinct := map[int]bool{}
				for _, l := range labels {
					require.GreaterOrEqual(t, l, 0)
					require.Less(t, l, k)
					distinct[l] = true
				}
				assert.Len(t, distinct, k)
				assert.Equal(t, 0, labels[0], "labels follow first appearance")
			})
		}
	}
}

func TestFitHierarchical_TwoGroups(t *testing.T) {
	X := []model.FeatureVector{{0}, {10}, {0.5}, {10.5}, {1}}
	for _, linkage := range []Linkage{LinkageSingle, LinkageComplete, LinkageAverage} {
		t.Run(linkage.String(), func(t *testing.T) {
			labels, err := FitHierarchical(X, linkage, 2, MetricEuclidean)
			require.NoError(t, err)
			assert.Equal(t, model.ClusterAssignment{0, 1, 0, 1, 0}, labels)
		})
	}
}

func TestFitHierarchical_InvalidK(t *testing.T) {
	X := []model.FeatureVector{{0}, {1}, {2}}
	for _, k := range []int{0, -1, 4} {
		_, err := FitHierarchical(X, LinkageAverage, k, MetricEuclidean)
		var kErr *model.InvalidKError
		require.True(t, errors.As(err, &kErr), "k=%d", k)
		assert.Equal(t, k, kErr.K)
		assert.Equal(t, 3, kErr.N)
	}
}

func TestBuildDendrogram_Merges(t *testing.T) {
	X := []model.FeatureVector{{0}, {1}, {5}}
	d, err := BuildDendrogram(X, LinkageSingle, MetricEuclidean)
	require.NoError(t, err)
	require.Len(t, d.Merges, 2)

	assert.Equal(t, Merge{A: 0, B: 1, Distance: 1, Size: 2}, d.Merges[0])
	assert.Equal(t, Merge{A: 3, B: 2, Distance: 4, Size: 3}, d.Merges[1])
}

func TestBuildDendrogram_LinkageDistances(t *testing.T) {
	X := []model.FeatureVector{{0}, {1}, {5}}
	tests := []struct {
		linkage Linkage
		want    float64
	}{
		{LinkageSingle, 4},
		{LinkageComplete, 5},
		{LinkageAverage, 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.linkage.String(), func(t *testing.T) {
			d, err := BuildDendrogram(X, tt.linkage, MetricEuclidean)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, d.Merges[1].Distance, 1e-12)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(model.ClusterAssignment{0, 1, -1, 0, -1, 2})
	assert.Equal(t, 2, s.Noise)
	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, s.Sizes)
}
