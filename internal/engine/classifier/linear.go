package classifier

import (
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// LinearModel is a multinomial logistic regression trained by full-batch
// gradient descent from zero weights, so training is deterministic.
type LinearModel struct {
	classes []model.Label
	weights [][]float64 // [class][feature]
	bias    []float64
	opts    Options
}

func (*LinearModel) sealed() {}

// Family implements Model.
func (*LinearModel) Family() Family { return FamilyLinear }

// Width implements Model.
func (m *LinearModel) Width() int {
	if len(m.weights) == 0 {
		return 0
	}
	return len(m.weights[0])
}

// Classes implements Model.
func (m *LinearModel) Classes() []model.Label {
	return append([]model.Label(nil), m.classes...)
}

// Weights returns a copy of the weight row for the class at index c.
func (m *LinearModel) Weights(c int) []float64 {
	return append([]float64(nil), m.weights[c]...)
}

// Bias returns the intercept for the class at index c.
func (m *LinearModel) Bias(c int) float64 {
	return m.bias[c]
}

// RawScore returns w[c]·x + b[c].
func (m *LinearModel) RawScore(c int, x model.FeatureVector) float64 {
	s := m.bias[c]
	for f, w := range m.weights[c] {
		s += w * x[f]
	}
	return s
}

func (m *LinearModel) rawScores(x model.FeatureVector) []float64 {
	out := make([]float64, len(m.classes))
	for c := range m.classes {
		out[c] = m.RawScore(c, x)
	}
	return out
}

func trainLinear(X []model.FeatureVector, y []model.Label, width int, opts Options) *LinearModel {
	classes := model.DistinctLabels(y)
	m := &LinearModel{
		classes: classes,
		weights: make([][]float64, len(classes)),
		bias:    make([]float64, len(classes)),
		opts:    opts,
	}
	for c := range m.weights {
		m.weights[c] = make([]float64, width)
	}
	m.descend(X, y, opts.Epochs)
	return m
}

// descend runs full-batch gradient descent on the cross-entropy loss with
// an L2 penalty on the weights.
func (m *LinearModel) descend(X []model.FeatureVector, y []model.Label, epochs int) {
	idx := classIndex(m.classes)
	k, width := len(m.classes), m.Width()
	n := float64(len(X))

	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, width)
	}
	gradB := make([]float64, k)

	for epoch := 0; epoch < epochs; epoch++ {
		for c := range gradW {
			clear(gradW[c])
		}
		clear(gradB)

		for i, x := range X {
			p := softmax(m.rawScores(x))
			target := idx[y[i]]
			for c := range p {
				g := p[c]
				if c == target {
					g -= 1
				}
				if g == 0 {
					continue
				}
				gradB[c] += g
				row := gradW[c]
				for f, v := range x {
					if v != 0 {
						row[f] += g * v
					}
				}
			}
		}

		lr := m.opts.LearningRate
		for c := range m.weights {
			w := m.weights[c]
			for f := range w {
				w[f] -= lr * (gradW[c][f]/n + m.opts.L2*w[f])
			}
			m.bias[c] -= lr * gradB[c] / n
		}
	}
}

func (m *LinearModel) clone() *LinearModel {
	out := &LinearModel{
		classes: append([]model.Label(nil), m.classes...),
		weights: make([][]float64, len(m.weights)),
		bias:    append([]float64(nil), m.bias...),
		opts:    m.opts,
	}
	for c, w := range m.weights {
		out.weights[c] = append([]float64(nil), w...)
	}
	return out
}

func (m *LinearModel) update(X []model.FeatureVector, y []model.Label) *LinearModel {
	out := m.clone()
	width := out.Width()
	for _, l := range y {
		classes, pos, added := insertClass(out.classes, l)
		if !added {
			continue
		}
		out.classes = classes
		out.weights = append(out.weights[:pos], append([][]float64{make([]float64, width)}, out.weights[pos:]...)...)
		out.bias = append(out.bias[:pos], append([]float64{0}, out.bias[pos:]...)...)
	}
	out.descend(X, y, out.opts.UpdateEpochs)
	return out
}

// softmax converts scores to probabilities in a numerically stable way.
func softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
