// Package explainer attributes individual predictions to input features.
package explainer

import (
	"math"
	"sort"

	"github.com/crimson-sun/murmur/internal/engine/classifier"
	"github.com/crimson-sun/murmur/internal/model"
)

// Explainer produces per-prediction feature attributions. TopN > 0 keeps
// only the TopN strongest contributions of each explanation.
type Explainer struct {
	TopN int
}

// New creates an Explainer keeping at most topN contributions per
// prediction (0 keeps all).
func New(topN int) *Explainer {
	return &Explainer{TopN: topN}
}

// Explain returns one Explanation per row of X, in order. The result depends
// only on (m, X, featureNames).
//
// Linear models attribute w[c][f]·x[f] to each feature for the predicted
// class c, with the class bias as baseline, so contributions plus baseline
// equal the raw score. Tree ensembles attribute to each feature its share of
// the weighted impurity reduction along the decision paths, signed by
// whether the split moved the predicted class probability up or down, and
// scaled so that contributions plus the mean root probability equal the
// predicted probability.
func (e *Explainer) Explain(m classifier.Model, X []model.FeatureVector, featureNames []string) ([]model.Explanation, error) {
	if len(featureNames) != m.Width() {
		return nil, &model.DimensionMismatchError{Expected: m.Width(), Actual: len(featureNames)}
	}

	switch mm := m.(type) {
	case *classifier.LinearModel:
		return e.explainLinear(mm, X, featureNames)
	case *classifier.ForestModel:
		return e.explainForest(mm, X, featureNames)
	default:
		return nil, &model.UnsupportedModelError{Family: m.Family().String(), Operation: "explain"}
	}
}

func (e *Explainer) explainLinear(m *classifier.LinearModel, X []model.FeatureVector, names []string) ([]model.Explanation, error) {
	probs, err := classifier.Probabilities(m, X)
	if err != nil {
		return nil, err
	}
	classes := m.Classes()

	out := make([]model.Explanation, len(X))
	for i, x := range X {
		c := argmax(probs[i])
		w := m.Weights(c)
		var contribs []model.Contribution
		for f, v := range x {
			if weight := w[f] * v; weight != 0 {
				contribs = append(contribs, model.Contribution{Feature: names[f], Index: f, Weight: weight})
			}
		}
		out[i] = model.Explanation{
			Label:         classes[c],
			Output:        m.RawScore(c, x),
			Baseline:      m.Bias(c),
			Contributions: e.rank(contribs),
		}
	}
	return out, nil
}

func (e *Explainer) explainForest(m *classifier.ForestModel, X []model.FeatureVector, names []string) ([]model.Explanation, error) {
	probs, err := classifier.Probabilities(m, X)
	if err != nil {
		return nil, err
	}
	classes := m.Classes()
	root := m.RootDistribution()

	out := make([]model.Explanation, len(X))
	for i, x := range X {
		c := argmax(probs[i])

		// Each split moves the predicted class probability up or down. The
		// total rise and fall along all paths are shared out among features
		// in proportion to their impurity reduction in that direction.
		up := make(map[int]float64)
		down := make(map[int]float64)
		var rise, fall, upTotal, downTotal float64
		m.WalkPaths(x, func(s classifier.SplitStep) {
			delta := s.Child[c] - s.Parent[c]
			if delta < 0 {
				fall -= delta
			} else {
				rise += delta
			}
			if s.Reduction <= 0 {
				return
			}
			if delta < 0 {
				down[s.Feature] += s.Reduction
				downTotal += s.Reduction
			} else {
				up[s.Feature] += s.Reduction
				upTotal += s.Reduction
			}
		})
		n := float64(m.Trees())
		rise /= n
		fall /= n

		weights := make(map[int]float64, len(up)+len(down))
		if upTotal > 0 {
			for f, r := range up {
				weights[f] += rise * r / upTotal
			}
		}
		if downTotal > 0 {
			for f, r := range down {
				weights[f] -= fall * r / downTotal
			}
		}

		var contribs []model.Contribution
		for f, w := range weights {
			if w == 0 {
				continue
			}
			contribs = append(contribs, model.Contribution{Feature: names[f], Index: f, Weight: w})
		}

		out[i] = model.Explanation{
			Label:         classes[c],
			Output:        probs[i][c],
			Baseline:      root[c],
			Contributions: e.rank(contribs),
		}
	}
	return out, nil
}

// rank orders contributions by absolute weight (descending), then by
// feature column, and applies TopN.
func (e *Explainer) rank(contribs []model.Contribution) []model.Contribution {
	sort.Slice(contribs, func(i, j int) bool {
		ai, aj := math.Abs(contribs[i].Weight), math.Abs(contribs[j].Weight)
		if ai != aj {
			return ai > aj
		}
		return contribs[i].Index < contribs[j].Index
	})
	if e.TopN > 0 && len(contribs) > e.TopN {
		contribs = contribs[:e.TopN]
	}
	return contribs
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
