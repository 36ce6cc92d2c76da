package gp

import (
	"fmt"

	"github.com/crimson-sun/murmur/internal/model"
)

// Prediction is the classifier's output for one row.
type Prediction struct {
	Label model.Label
	// Uncertainty is the posterior of the winning class's one-vs-rest
	// regressor.
	Uncertainty model.UncertaintyPrediction
	PerClass    []model.UncertaintyPrediction
}

// Classifier fits one regressor per class on ±1 targets and predicts the
// class with the highest posterior mean.
type Classifier struct {
	kernel  Kernel
	noise   float64
	classes []model.Label
	models  []*Regressor
}

// NewClassifier returns an unfitted classifier whose per-class regressors
// share kernel k and observation noise.
func NewClassifier(k Kernel, noise float64) *Classifier {
	return &Classifier{kernel: k, noise: noise}
}

// Classes returns the fitted classes in ascending order.
func (c *Classifier) Classes() []model.Label { return c.classes }

// Fit trains one regressor per distinct label, using +1 for the class and
// -1 for the rest. It needs at least two classes.
func (c *Classifier) Fit(X []model.FeatureVector, y []model.Label) error {
	if len(X) != len(y) {
		return fmt.Errorf("gp: %d rows but %d labels", len(X), len(y))
	}
	classes := model.DistinctLabels(y)
	if len(X) < 2 || len(classes) < 2 {
		return &model.InsufficientDataError{Samples: len(X), Classes: len(classes)}
	}

	models := make([]*Regressor, len(classes))
	target := make([]float64, len(y))
	for ci, cls := range classes {
		for i, l := range y {
			target[i] = -1
			if l == cls {
				target[i] = 1
			}
		}
		r := NewRegressor(c.kernel, c.noise, false)
		if err := r.Fit(X, target); err != nil {
			return fmt.Errorf("class %d: %w", cls, err)
		}
		models[ci] = r
	}
	c.classes = classes
	c.models = models
	return nil
}

// Predict returns, for each row, the class with the highest posterior mean
// together with every class's posterior.
func (c *Classifier) Predict(X []model.FeatureVector) ([]Prediction, error) {
	if len(c.models) == 0 {
		return nil, model.ErrNotFitted
	}
	perClass := make([][]model.UncertaintyPrediction, len(c.models))
	for ci, r := range c.models {
		p, err := r.Predict(X)
		if err != nil {
			return nil, err
		}
		perClass[ci] = p
	}

	out := make([]Prediction, len(X))
	for i := range X {
		row := make([]model.UncertaintyPrediction, len(c.classes))
		best := 0
		for ci := range c.classes {
			row[ci] = perClass[ci][i]
			if row[ci].Mean > row[best].Mean {
				best = ci
			}
		}
		out[i] = Prediction{Label: c.classes[best], Uncertainty: row[best], PerClass: row}
	}
	return out, nil
}
