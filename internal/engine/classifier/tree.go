package classifier

import (
	"math/rand"
	"sort"

	"github.com/crimson-sun/murmur/internal/model"
)

const leaf = -1

// node is one CART node. Leaves have feature == leaf.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	samples   int
	impurity  float64
	dist      []float64 // class probabilities at this node
}

type tree struct {
	nodes []node
}

// treeBuilder grows a single Gini tree over a bootstrap sample.
type treeBuilder struct {
	examples []model.LabeledExample
	classIdx map[model.Label]int
	k        int
	width    int
	mtry     int
	maxDepth int
	minLeaf  int
	rng      *rand.Rand
	t        *tree
}

func (b *treeBuilder) build(samples []int) *tree {
	b.t = &tree{}
	b.grow(samples, 0)
	return b.t
}

// grow appends the node for samples (and its subtree) and returns its index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts := b.counts(samples)
	id := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{
		feature:  leaf,
		samples:  len(samples),
		impurity: gini(counts, len(samples)),
		dist:     normalize(counts, len(samples)),
	})

	n := b.t.nodes[id]
	if n.impurity == 0 || len(samples) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, n.impurity)
	if !ok {
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.examples[s].Vector[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.t.nodes[id].feature = feature
	b.t.nodes[id].threshold = threshold
	b.t.nodes[id].left = l
	b.t.nodes[id].right = r
	return id
}

// bestSplit evaluates up to mtry non-constant features in random order and
// returns the split with the lowest weighted child impurity. Constant
// features are skipped without counting toward mtry.
func (b *treeBuilder) bestSplit(samples []int, parentImpurity float64) (int, float64, bool) {
	type pair struct {
		v float64
		c int
	}
	pairs := make([]pair, len(samples))
	n := float64(len(samples))

	bestFeature, bestThreshold := -1, 0.0
	bestScore := parentImpurity - 1e-12
	evaluated := 0

	for _, f := range b.rng.Perm(b.width) {
		if evaluated >= b.mtry {
			break
		}
		for i, s := range samples {
			ex := b.examples[s]
			pairs[i] = pair{v: ex.Vector[f], c: b.classIdx[ex.Label]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })
		if pairs[0].v == pairs[len(pairs)-1].v {
			continue
		}
		evaluated++

		left := make([]int, b.k)
		right := make([]int, b.k)
		for _, p := range pairs {
			right[p.c]++
		}
		for i := 0; i < len(pairs)-1; i++ {
			left[pairs[i].c]++
			right[pairs[i].c]--
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			nl, nr := i+1, len(pairs)-i-1
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			score := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / n
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (pairs[i].v + pairs[i+1].v) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) counts(samples []int) []int {
	counts := make([]int, b.k)
	for _, s := range samples {
		counts[b.classIdx[b.examples[s].Label]]++
	}
	return counts
}

// leafFor returns the index of the leaf x falls into.
func (t *tree) leafFor(x model.FeatureVector) int {
	i := 0
	for t.nodes[i].feature != leaf {
		n := t.nodes[i]
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return i
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func normalize(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(n)
	}
	return out
}
