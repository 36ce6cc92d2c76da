package classifier

import (
	"context"
	"math"
	"math/rand"

	"github.com/crimson-sun/murmur/internal/model"
	"golang.org/x/sync/errgroup"
)

// ForestModel is a random forest of Gini trees. It keeps the examples it was
// trained on so that Update can retrain on the accumulated history.
type ForestModel struct {
	classes []model.Label
	width   int
	trees   []*tree
	history []model.LabeledExample
	opts    Options
}

func (*ForestModel) sealed() {}

// Family implements Model.
func (*ForestModel) Family() Family { return FamilyTreeEnsemble }

// Width implements Model.
func (m *ForestModel) Width() int { return m.width }

// Classes implements Model.
func (m *ForestModel) Classes() []model.Label {
	return append([]model.Label(nil), m.classes...)
}

// Trees returns the number of trees in the ensemble.
func (m *ForestModel) Trees() int { return len(m.trees) }

// HistorySize returns the number of examples the forest was trained on.
func (m *ForestModel) HistorySize() int { return len(m.history) }

// SplitStep describes one split on the decision path of a tree.
type SplitStep struct {
	Tree      int
	Feature   int
	Reduction float64   // weighted Gini decrease at the split
	Parent    []float64 // class distribution before the split
	Child     []float64 // class distribution of the branch taken
}

// WalkPaths calls fn for every split on the decision path of x, tree by
// tree in order.
func (m *ForestModel) WalkPaths(x model.FeatureVector, fn func(SplitStep)) {
	for ti, t := range m.trees {
		i := 0
		for t.nodes[i].feature != leaf {
			n := t.nodes[i]
			l, r := t.nodes[n.left], t.nodes[n.right]
			reduction := float64(n.samples)*n.impurity -
				float64(l.samples)*l.impurity -
				float64(r.samples)*r.impurity

			next := n.right
			if x[n.feature] <= n.threshold {
				next = n.left
			}
			fn(SplitStep{
				Tree:      ti,
				Feature:   n.feature,
				Reduction: reduction,
				Parent:    n.dist,
				Child:     t.nodes[next].dist,
			})
			i = next
		}
	}
}

// RootDistribution returns the class distribution at the tree roots,
// averaged over the ensemble.
func (m *ForestModel) RootDistribution() []float64 {
	out := make([]float64, len(m.classes))
	for _, t := range m.trees {
		for c, p := range t.nodes[0].dist {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(m.trees))
	}
	return out
}

func (m *ForestModel) proba(x model.FeatureVector) []float64 {
	out := make([]float64, len(m.classes))
	for _, t := range m.trees {
		for c, p := range t.nodes[t.leafFor(x)].dist {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(m.trees))
	}
	return out
}

func trainForest(examples []model.LabeledExample, width int, opts Options) (*ForestModel, error) {
	classes := model.DistinctLabels(labelsOf(examples))
	classIdx := classIndex(classes)
	mtry := int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))

	trees := make([]*tree, opts.Trees)
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(opts.Workers)
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(treeSeed(opts.Seed, i)))
			samples := make([]int, len(examples))
			for j := range samples {
				samples[j] = rng.Intn(len(examples))
			}
			b := &treeBuilder{
				examples: examples,
				classIdx: classIdx,
				k:        len(classes),
				width:    width,
				mtry:     mtry,
				maxDepth: opts.MaxDepth,
				minLeaf:  opts.MinLeaf,
				rng:      rng,
			}
			trees[i] = b.build(samples)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ForestModel{
		classes: classes,
		width:   width,
		trees:   trees,
		history: examples,
		opts:    opts,
	}, nil
}

func (m *ForestModel) update(X []model.FeatureVector, y []model.Label) (*ForestModel, error) {
	history := make([]model.LabeledExample, 0, len(m.history)+len(X))
	history = append(history, m.history...)
	history = append(history, toExamples(X, y)...)
	return trainForest(history, m.width, m.opts)
}

// treeSeed derives an independent, reproducible seed for tree i.
func treeSeed(seed int64, i int) int64 {
	return seed*1_000_003 + int64(i)*7919 + 1
}

func labelsOf(examples []model.LabeledExample) []model.Label {
	out := make([]model.Label, len(examples))
	for i, e := range examples {
		out[i] = e.Label
	}
	return out
}
