package cluster

import (
	"fmt"
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// Linkage selects how the distance between two clusters is derived from the
// distances between their members.
type Linkage int

const (
	LinkageSingle Linkage = iota
	LinkageComplete
	LinkageAverage
)

func (l Linkage) String() string {
	switch l {
	case LinkageSingle:
		return "single"
	case LinkageComplete:
		return "complete"
	case LinkageAverage:
		return "average"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// ParseLinkage converts a configuration string to a Linkage.
func ParseLinkage(s string) (Linkage, error) {
	switch s {
	case "single":
		return LinkageSingle, nil
	case "complete":
		return LinkageComplete, nil
	case "", "average":
		return LinkageAverage, nil
	default:
		return 0, fmt.Errorf("unknown linkage %q", s)
	}
}

// Merge is one agglomeration step. Leaves are numbered 0..n-1 and the
// cluster created by step i is numbered n+i.
type Merge struct {
	A        int
	B        int
	Distance float64
	Size     int
}

// Dendrogram is the full bottom-up merge tree over n points.
type Dendrogram struct {
	N      int
	Merges []Merge
}

// BuildDendrogram merges the two closest clusters until one remains, using
// Lance-Williams distance updates. Ties go to the pair with the lowest
// indices.
func BuildDendrogram(X []model.FeatureVector, linkage Linkage, metric Metric) (*Dendrogram, error) {
	if err := checkWidths(X); err != nil {
		return nil, err
	}
	n := len(X)
	d := &Dendrogram{N: n}
	if n < 2 {
		return d, nil
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := metric.Distance(X[i], X[j])
			dist[i][j], dist[j][i] = v, v
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	id := make([]int, n)
	for i := range active {
		active[i], size[i], id[i] = true, 1, i
	}

	for step := 0; step < n-1; step++ {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}
		if bi < 0 {
			// Only NaN distances remain; merge the first two active slots.
			bi, bj = firstTwo(active)
			best = dist[bi][bj]
		}

		merged := size[bi] + size[bj]
		d.Merges = append(d.Merges, Merge{A: id[bi], B: id[bj], Distance: best, Size: merged})

		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			var v float64
			switch linkage {
			case LinkageSingle:
				v = math.Min(dist[bi][k], dist[bj][k])
			case LinkageComplete:
				v = math.Max(dist[bi][k], dist[bj][k])
			default:
				v = (float64(size[bi])*dist[bi][k] + float64(size[bj])*dist[bj][k]) / float64(merged)
			}
			dist[bi][k], dist[k][bi] = v, v
		}
		active[bj] = false
		size[bi] = merged
		id[bi] = n + step
	}
	return d, nil
}

// Cut replays the first N-k merges and returns exactly k flat clusters,
// labeled 0..k-1 in order of first appearance by point index.
func (d *Dendrogram) Cut(k int) (model.ClusterAssignment, error) {
	if k < 1 || k > d.N {
		return nil, &model.InvalidKError{K: k, N: d.N}
	}

	parent := make([]int, 2*d.N)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for step, m := range d.Merges[:d.N-k] {
		node := d.N + step
		parent[find(m.A)] = node
		parent[find(m.B)] = node
	}

	labels := make(model.ClusterAssignment, d.N)
	remap := make(map[int]int, k)
	for i := range labels {
		root := find(i)
		l, ok := remap[root]
		if !ok {
			l = len(remap)
			remap[root] = l
		}
		labels[i] = l
	}
	return labels, nil
}

// FitHierarchical builds the dendrogram and cuts it into exactly k flat
// clusters.
func FitHierarchical(X []model.FeatureVector, linkage Linkage, k int, metric Metric) (model.ClusterAssignment, error) {
	if k < 1 || k > len(X) {
		return nil, &model.InvalidKError{K: k, N: len(X)}
	}
	d, err := BuildDendrogram(X, linkage, metric)
	if err != nil {
		return nil, err
	}
	return d.Cut(k)
}

func firstTwo(active []bool) (int, int) {
	a := -1
	for i, ok := range active {
		if !ok {
			continue
		}
		if a < 0 {
			a = i
			continue
		}
		return a, i
	}
	return a, a
}
