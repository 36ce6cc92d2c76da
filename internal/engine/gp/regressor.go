// Package gp implements Gaussian-process regression and a one-vs-rest
// classifier on top of it, reporting a posterior variance with every
// prediction.
package gp

import (
	"errors"
	"fmt"
	"math"

	"github.com/crimson-sun/murmur/internal/model"
	"gonum.org/v1/gonum/mat"
)

const (
	initialJitter = 1e-10
	jitterRetries = 5
	z95           = 1.96
)

// Regressor is an exact GP regressor with Gaussian observation noise.
type Regressor struct {
	kernel    Kernel
	noise     float64
	normalize bool

	X     []model.FeatureVector
	chol  *mat.Cholesky
	alpha *mat.VecDense
	mean  float64
}

// NewRegressor returns an unfitted regressor. With normalize set the target
// mean is subtracted before fitting and added back to predictions.
func NewRegressor(k Kernel, noise float64, normalize bool) *Regressor {
	return &Regressor{kernel: k, noise: noise, normalize: normalize}
}

// Fitted reports whether Fit has succeeded.
func (r *Regressor) Fitted() bool { return r.chol != nil }

// Fit conditions the process on (X, y).
func (r *Regressor) Fit(X []model.FeatureVector, y []float64) error {
	if len(X) == 0 {
		return model.ErrEmptyCorpus
	}
	if len(X) != len(y) {
		return fmt.Errorf("gp: %d rows but %d targets", len(X), len(y))
	}
	width := len(X[0])
	for _, x := range X {
		if len(x) != width {
			return &model.DimensionMismatchError{Expected: width, Actual: len(x)}
		}
	}

	n := len(X)
	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			K.SetSym(i, j, r.kernel.Eval(X[i], X[j]))
		}
	}

	chol, err := factorize(K, r.noise)
	if err != nil {
		return err
	}

	var mean float64
	if r.normalize {
		for _, v := range y {
			mean += v
		}
		mean /= float64(n)
	}
	target := mat.NewVecDense(n, nil)
	for i, v := range y {
		target.SetVec(i, v-mean)
	}
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, target); err != nil {
		return fmt.Errorf("gp: solve: %w", err)
	}

	r.X = append([]model.FeatureVector(nil), X...)
	r.chol = chol
	r.alpha = alpha
	r.mean = mean
	return nil
}

// factorize adds noise to the diagonal and retries with growing jitter
// until the matrix is positive definite.
func factorize(K *mat.SymDense, noise float64) (*mat.Cholesky, error) {
	n, _ := K.Dims()
	jitter := 0.0
	for attempt := 0; attempt <= jitterRetries; attempt++ {
		A := mat.NewSymDense(n, nil)
		A.CopySym(K)
		for i := 0; i < n; i++ {
			A.SetSym(i, i, A.At(i, i)+noise+jitter)
		}
		var chol mat.Cholesky
		if chol.Factorize(A) {
			return &chol, nil
		}
		if jitter == 0 {
			jitter = initialJitter
		} else {
			jitter *= 10
		}
	}
	return nil, errors.New("gp: covariance matrix is not positive definite")
}

// Predict returns the posterior mean, variance and 95% interval for each row.
func (r *Regressor) Predict(X []model.FeatureVector) ([]model.UncertaintyPrediction, error) {
	if r.chol == nil {
		return nil, model.ErrNotFitted
	}
	width := len(r.X[0])
	n := len(r.X)
	out := make([]model.UncertaintyPrediction, len(X))
	kStar := mat.NewVecDense(n, nil)
	v := mat.NewVecDense(n, nil)
	for i, x := range X {
		if len(x) != width {
			return nil, &model.DimensionMismatchError{Expected: width, Actual: len(x)}
		}
		for j, xt := range r.X {
			kStar.SetVec(j, r.kernel.Eval(x, xt))
		}
		mean := mat.Dot(kStar, r.alpha) + r.mean

		if err := r.chol.SolveVecTo(v, kStar); err != nil {
			return nil, fmt.Errorf("gp: solve: %w", err)
		}
		variance := r.kernel.Eval(x, x) - mat.Dot(kStar, v)
		if variance < 0 || math.IsNaN(variance) {
			variance = 0
		}
		half := z95 * math.Sqrt(variance)
		out[i] = model.UncertaintyPrediction{
			Mean:     mean,
			Variance: variance,
			Lower:    mean - half,
			Upper:    mean + half,
		}
	}
	return out, nil
}
