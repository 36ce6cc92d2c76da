package cluster

import (
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// FitDensity runs density-based clustering. A point is a core point when at
// least minPoints other points lie within eps of it. Clusters are maximal
// sets of density-connected core points plus the border points they reach;
// everything else is labeled model.NoiseLabel. Points are visited in index
// order, so a border point reachable from two clusters joins the one
// discovered first.
func FitDensity(X []model.FeatureVector, eps float64, minPoints int, metric Metric) (model.ClusterAssignment, error) {
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		return nil, &model.ConfigError{Field: "eps", Reason: "must be a positive finite number"}
	}
	if minPoints < 1 {
		return nil, &model.ConfigError{Field: "min_points", Reason: "must be at least 1"}
	}
	if err := checkWidths(X); err != nil {
		return nil, err
	}

	n := len(X)
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if metric.Distance(X[i], X[j]) <= eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}
	isCore := func(i int) bool { return len(neighbors[i]) >= minPoints }

	const unvisited = -2
	labels := make(model.ClusterAssignment, n)
	for i := range labels {
		labels[i] = unvisited
	}

	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		if !isCore(i) {
			labels[i] = model.NoiseLabel
			continue
		}

		id := next
		next++
		labels[i] = id
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if labels[p] == model.NoiseLabel {
				// Previously rejected as noise, reachable now: border point.
				labels[p] = id
			}
			if labels[p] != unvisited {
				continue
			}
			labels[p] = id
			if isCore(p) {
				queue = append(queue, neighbors[p]...)
			}
		}
	}
	return labels, nil
}
