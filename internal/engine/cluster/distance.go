package cluster

import (
	"fmt"
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// Metric is the distance used between feature vectors.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricManhattan
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricManhattan:
		return "manhattan"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric converts a configuration string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "euclidean", "l2":
		return MetricEuclidean, nil
	case "manhattan", "l1":
		return MetricManhattan, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown distance metric %q", s)
	}
}

// Distance returns the distance between a and b. Vectors must have the same
// width.
func (m Metric) Distance(a, b model.FeatureVector) float64 {
	switch m {
	case MetricManhattan:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	case MetricCosine:
		return 1 - cosineSimilarity(a, b)
	default:
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

func cosineSimilarity(a, b model.FeatureVector) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func checkWidths(X []model.FeatureVector) error {
	if len(X) == 0 {
		return nil
	}
	width := len(X[0])
	for _, x := range X {
		if len(x) != width {
			return &model.DimensionMismatchError{Expected: width, Actual: len(x)}
		}
	}
	return nil
}
