package explainer

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/crimson-sun/murmur/internal/engine/classifier"
	"github.com/crimson-sun/murmur/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioNames = []string{"great", "product", "terrible", "service", "okay", "experience"}

func scenarioData() ([]model.FeatureVector, []model.Label) {
	w := math.Log(1.5)
	return []model.FeatureVector{
		{w, w, 0, 0, 0, 0},
		{0, 0, w, w, 0, 0},
		{0, 0, 0, 0, w, w},
	}, []model.Label{1, 0, 2}
}

func train(t *testing.T, fam classifier.Family, X []model.FeatureVector, y []model.Label) classifier.Model {
	t.Helper()
	opts := classifier.DefaultOptions()
	opts.Trees = 30
	m, err := classifier.Train(fam, X, y, opts)
	require.NoError(t, err)
	return m
}

func TestExplain_Scenario(t *testing.T) {
	X, y := scenarioData()
	for _, fam := range []classifier.Family{classifier.FamilyLinear, classifier.FamilyTreeEnsemble} {
		t.Run(fam.String(), func(t *testing.T) {
			m := train(t, fam, X, y)
			exps, err := New(0).Explain(m, X, scenarioNames)
			require.NoError(t, err)
			require.Len(t, exps, 3)

			pred, err := classifier.Predict(m, X)
			require.NoError(t, err)
			for i, e := range exps {
				assert.NotEmpty(t, e.Contributions, "explanation %d", i)
				assert.Equal(t, pred[i], e.Label)
				for _, c := range e.Contributions {
					assert.Equal(t, scenarioNames[c.Index], c.Feature)
				}
			}
		})
	}
}

func TestExplain_LinearSumsToRawScore(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			width := 3 + rng.Intn(5)
			X := make([]model.FeatureVector, 12)
			y := make([]model.Label, 12)
			for i := range X {
				X[i] = make(model.FeatureVector, width)
				for f := range X[i] {
					X[i][f] = rng.NormFloat64()
				}
				y[i] = model.Label(i % 3)
			}
			names := make([]string, width)
			for f := range names {
				names[f] = fmt.Sprintf("f%d", f)
			}

			m := train(t, classifier.FamilyLinear, X, y)
			exps, err := New(0).Explain(m, X, names)
			require.NoError(t, err)

			lm := m.(*classifier.LinearModel)
			classes := lm.Classes()
			for i, e := range exps {
				c := indexOf(classes, e.Label)
				require.GreaterOrEqual(t, c, 0)
				assert.InDelta(t, lm.RawScore(c, X[i]), e.Sum()+e.Baseline, 1e-9)
				assert.InDelta(t, e.Output, e.Sum()+e.Baseline, 1e-9)
			}
		})
	}
}

func TestExplain_ForestSumsToOutputGap(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	X := make([]model.FeatureVector, 30)
	y := make([]model.Label, 30)
	for i := range X {
		l := i % 2
		X[i] = model.FeatureVector{rng.Float64(), rng.Float64(), rng.Float64()}
		X[i][l] += 1
		y[i] = model.Label(l)
	}
	m := train(t, classifier.FamilyTreeEnsemble, X, y)

	exps, err := New(0).Explain(m, X, []string{"a", "b", "c"})
	require.NoError(t, err)
	for _, e := range exps {
		require.NotEmpty(t, e.Contributions)
		assert.InDelta(t, e.Output-e.Baseline, e.Sum(), 1e-9)
		assert.GreaterOrEqual(t, e.Output, 0.0)
		assert.LessOrEqual(t, e.Output, 1.0)
	}
}

func TestExplain_ForestSmallCorpus(t *testing.T) {
	X, y := scenarioData()
	m := train(t, classifier.FamilyTreeEnsemble, X, y)

	exps, err := New(0).Explain(m, X, scenarioNames)
	require.NoError(t, err)
	require.Len(t, exps, len(X))
	for _, e := range exps {
		assert.InDelta(t, e.Output-e.Baseline, e.Sum(), 1e-9)
		for _, c := range e.Contributions {
			assert.NotZero(t, c.Weight)
		}
	}
}

func TestExplain_Reproducible(t *testing.T) {
	X, y := scenarioData()
	for _, fam := range []classifier.Family{classifier.FamilyLinear, classifier.FamilyTreeEnsemble} {
		t.Run(fam.String(), func(t *testing.T) {
			m := train(t, fam, X, y)
			a, err := New(0).Explain(m, X, scenarioNames)
			require.NoError(t, err)
			b, err := New(0).Explain(m, X, scenarioNames)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestExplain_UnsupportedFamily(t *testing.T) {
	X, y := scenarioData()
	m := train(t, classifier.FamilyNaiveBayes, X, y)
	_, err := New(0).Explain(m, X, scenarioNames)
	var ume *model.UnsupportedModelError
	require.ErrorAs(t, err, &ume)
	assert.Equal(t, "naive_bayes", ume.Family)
}

func TestExplain_DimensionMismatch(t *testing.T) {
	X, y := scenarioData()
	m := train(t, classifier.FamilyLinear, X, y)

	_, err := New(0).Explain(m, X, scenarioNames[:2])
	var dme *model.DimensionMismatchError
	require.ErrorAs(t, err, &dme)

	_, err = New(0).Explain(m, []model.FeatureVector{{1}}, scenarioNames)
	require.ErrorAs(t, err, &dme)
}

func TestExplain_TopNAndOrdering(t *testing.T) {
	X, y := scenarioData()
	m := train(t, classifier.FamilyLinear, X, y)

	row := model.FeatureVector{1, 1, 1, 1, 1, 1}
	all, err := New(0).Explain(m, []model.FeatureVector{row}, scenarioNames)
	require.NoError(t, err)
	top, err := New(2).Explain(m, []model.FeatureVector{row}, scenarioNames)
	require.NoError(t, err)

	require.Len(t, top[0].Contributions, 2)
	assert.Equal(t, all[0].Contributions[:2], top[0].Contributions)
	for i := 1; i < len(all[0].Contributions); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(all[0].Contributions[i-1].Weight),
			math.Abs(all[0].Contributions[i].Weight))
	}
}

func indexOf(classes []model.Label, l model.Label) int {
	for i, c := range classes {
		if c == l {
			return i
		}
	}
	return -1
}
