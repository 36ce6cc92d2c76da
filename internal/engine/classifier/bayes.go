package classifier

import (
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// BayesModel is a multinomial naive Bayes classifier over non-negative
// feature mass. Negative feature values are treated as zero.
type BayesModel struct {
	classes      []model.Label
	classCount   []float64
	featureCount [][]float64 // [class][feature]
	width        int
	alpha        float64
}

func (*BayesModel) sealed() {}

// Family implements Model.
func (*BayesModel) Family() Family { return FamilyNaiveBayes }

// Width implements Model.
func (m *BayesModel) Width() int { return m.width }

// Classes implements Model.
func (m *BayesModel) Classes() []model.Label {
	return append([]model.Label(nil), m.classes...)
}

func trainBayes(X []model.FeatureVector, y []model.Label, width int, opts Options) *BayesModel {
	m := &BayesModel{width: width, alpha: opts.Alpha}
	m.accumulate(X, y)
	return m
}

func (m *BayesModel) accumulate(X []model.FeatureVector, y []model.Label) {
	for i, x := range X {
		classes, pos, added := insertClass(m.classes, y[i])
		if added {
			m.classes = classes
			m.classCount = append(m.classCount[:pos], append([]float64{0}, m.classCount[pos:]...)...)
			m.featureCount = append(m.featureCount[:pos], append([][]float64{make([]float64, m.width)}, m.featureCount[pos:]...)...)
		}
		m.classCount[pos]++
		row := m.featureCount[pos]
		for f, v := range x {
			if v > 0 {
				row[f] += v
			}
		}
	}
}

func (m *BayesModel) logPosterior(x model.FeatureVector) []float64 {
	var total float64
	for _, c := range m.classCount {
		total += c
	}
	out := make([]float64, len(m.classes))
	for c := range m.classes {
		var mass float64
		for _, v := range m.featureCount[c] {
			mass += v
		}
		denom := mass + m.alpha*float64(m.width)
		lp := math.Log(m.classCount[c] / total)
		for f, v := range x {
			if v > 0 {
				lp += v * math.Log((m.featureCount[c][f]+m.alpha)/denom)
			}
		}
		out[c] = lp
	}
	return out
}

func (m *BayesModel) update(X []model.FeatureVector, y []model.Label) *BayesModel {
	out := &BayesModel{
		classes:      append([]model.Label(nil), m.classes...),
		classCount:   append([]float64(nil), m.classCount...),
		featureCount: make([][]float64, len(m.featureCount)),
		width:        m.width,
		alpha:        m.alpha,
	}
	for c, row := range m.featureCount {
		out.featureCount[c] = append([]float64(nil), row...)
	}
	out.accumulate(X, y)
	return out
}
