package classifier

import (
	"fmt"
	"runtime"

	"github.com/crimson-sun/murmur/internal/model"
)

// Family identifies a supported model family.
type Family int

const (
	FamilyLinear Family = iota
	FamilyTreeEnsemble
	FamilyNaiveBayes
)

func (f Family) String() string {
	switch f {
	case FamilyLinear:
		return "linear"
	case FamilyTreeEnsemble:
		return "tree_ensemble"
	case FamilyNaiveBayes:
		return "naive_bayes"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFamily converts a configuration string to a Family.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "linear", "logistic":
		return FamilyLinear, nil
	case "tree_ensemble", "random_forest", "forest":
		return FamilyTreeEnsemble, nil
	case "naive_bayes", "bayes":
		return FamilyNaiveBayes, nil
	default:
		return 0, fmt.Errorf("unknown model family %q", s)
	}
}

// Options holds the hyperparameters of every family. Fields that do not
// apply to the trained family are ignored.
type Options struct {
	Seed int64

	LearningRate float64 // linear: gradient step size
	Epochs       int     // linear: full-batch passes during Train
	UpdateEpochs int     // linear: passes over new examples during Update
	L2           float64 // linear: weight penalty

	Trees    int // tree_ensemble: number of trees
	MaxDepth int // tree_ensemble: 0 means unlimited
	MinLeaf  int // tree_ensemble: minimum samples per leaf
	Workers  int // tree_ensemble: parallel tree builders, 0 means GOMAXPROCS

	Alpha float64 // naive_bayes: additive smoothing
}

// DefaultOptions returns the hyperparameters used when none are configured.
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		LearningRate: 0.5,
		Epochs:       300,
		UpdateEpochs: 100,
		L2:           1e-4,
		Trees:        100,
		MinLeaf:      1,
		Alpha:        1.0,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.Epochs <= 0 {
		o.Epochs = d.Epochs
	}
	if o.UpdateEpochs <= 0 {
		o.UpdateEpochs = d.UpdateEpochs
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = d.MinLeaf
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Alpha <= 0 {
		o.Alpha = d.Alpha
	}
	return o
}

// Model is the fitted state of one family. The concrete types are
// *LinearModel, *ForestModel and *BayesModel; callers select behavior with
// a type switch. A Model is never mutated after it is returned.
type Model interface {
	Family() Family
	Width() int
	Classes() []model.Label
	sealed()
}

// Train fits a fresh model of the given family.
func Train(family Family, X []model.FeatureVector, y []model.Label, opts Options) (Model, error) {
	width, err := validateTraining(X, y)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	switch family {
	case FamilyLinear:
		return trainLinear(X, y, width, opts), nil
	case FamilyTreeEnsemble:
		return trainForest(toExamples(X, y), width, opts)
	case FamilyNaiveBayes:
		return trainBayes(X, y, width, opts), nil
	default:
		return nil, &model.UnsupportedModelError{Family: family.String(), Operation: "train"}
	}
}

// Predict returns one label per row of X. It never modifies m.
func Predict(m Model, X []model.FeatureVector) ([]model.Label, error) {
	probs, err := Probabilities(m, X)
	if err != nil {
		return nil, err
	}
	classes := m.Classes()
	out := make([]model.Label, len(probs))
	for i, p := range probs {
		out[i] = classes[argmax(p)]
	}
	return out, nil
}

// Probabilities returns per-class scores in [0,1] for each row of X,
// aligned with m.Classes().
func Probabilities(m Model, X []model.FeatureVector) ([][]float64, error) {
	if err := checkWidth(m.Width(), X); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		switch mm := m.(type) {
		case *LinearModel:
			out[i] = softmax(mm.rawScores(x))
		case *ForestModel:
			out[i] = mm.proba(x)
		case *BayesModel:
			out[i] = softmax(mm.logPosterior(x))
		default:
			return nil, &model.UnsupportedModelError{Family: m.Family().String(), Operation: "predict"}
		}
	}
	return out, nil
}

// Update incorporates new labeled examples and returns a new Model; m itself
// is left untouched. Linear and naive Bayes models update natively. Tree
// ensembles have no partial fit: they are retrained from scratch on the
// accumulated history (previous training data plus the new examples) with
// the same seed and options, which is deterministic.
func Update(m Model, X []model.FeatureVector, y []model.Label) (Model, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("classifier update: %d vectors but %d labels", len(X), len(y))
	}
	if err := checkWidth(m.Width(), X); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return m, nil
	}

	switch mm := m.(type) {
	case *LinearModel:
		return mm.update(X, y), nil
	case *ForestModel:
		return mm.update(X, y)
	case *BayesModel:
		return mm.update(X, y), nil
	default:
		return nil, &model.UnsupportedModelError{Family: m.Family().String(), Operation: "update"}
	}
}

func validateTraining(X []model.FeatureVector, y []model.Label) (int, error) {
	if len(X) != len(y) {
		return 0, fmt.Errorf("classifier train: %d vectors but %d labels", len(X), len(y))
	}
	classes := model.DistinctLabels(y)
	if len(X) < 2 || len(classes) < 2 {
		return 0, &model.InsufficientDataError{Samples: len(X), Classes: len(classes)}
	}
	width := len(X[0])
	if err := checkWidth(width, X); err != nil {
		return 0, err
	}
	return width, nil
}

func checkWidth(width int, X []model.FeatureVector) error {
	for _, x := range X {
		if len(x) != width {
			return &model.DimensionMismatchError{Expected: width, Actual: len(x)}
		}
	}
	return nil
}

func toExamples(X []model.FeatureVector, y []model.Label) []model.LabeledExample {
	out := make([]model.LabeledExample, len(X))
	for i := range X {
		out[i] = model.LabeledExample{Vector: X[i], Label: y[i]}
	}
	return out
}

func classIndex(classes []model.Label) map[model.Label]int {
	idx := make(map[model.Label]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

// insertClass returns classes with l inserted in sorted position and the
// position used. If l is already present, classes is returned unchanged.
func insertClass(classes []model.Label, l model.Label) ([]model.Label, int, bool) {
	for i, c := range classes {
		if c == l {
			return classes, i, false
		}
		if c > l {
			out := make([]model.Label, 0, len(classes)+1)
			out = append(out, classes[:i]...)
			out = append(out, l)
			out = append(out, classes[i:]...)
			return out, i, true
		}
	}
	out := append(append([]model.Label(nil), classes...), l)
	return out, len(classes), true
}

// argmax returns the index of the largest value; ties go to the lowest index.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
