package gp

import (
	"fmt"
	"math"

	"github.com/crimson-sun/murmur/internal/model"
)

// Kernel is a covariance function over feature vectors.
type Kernel interface {
	Eval(a, b model.FeatureVector) float64
	Name() string
}

// RBF is the squared-exponential kernel.
type RBF struct {
	LengthScale float64
	Variance    float64
}

// Name returns the configuration name of the kernel.
func (k RBF) Name() string { return "rbf" }

// Eval returns variance·exp(-|a-b|²/2ℓ²).
func (k RBF) Eval(a, b model.FeatureVector) float64 {
	d2 := squaredDistance(a, b)
	return k.Variance * math.Exp(-d2/(2*k.LengthScale*k.LengthScale))
}

// Linear is the dot-product kernel with bias sigma0².
type Linear struct {
	Sigma0 float64
}

// Name returns the configuration name of the kernel.
func (k Linear) Name() string { return "linear" }

// Eval returns sigma0² + a·b.
func (k Linear) Eval(a, b model.FeatureVector) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return k.Sigma0*k.Sigma0 + dot
}

// Matern32 is the Matérn kernel with ν = 3/2.
type Matern32 struct {
	LengthScale float64
	Variance    float64
}

// Name returns the configuration name of the kernel.
func (k Matern32) Name() string { return "matern32" }

// Eval returns variance·(1+r)·exp(-r) with r = √3·|a-b|/ℓ.
func (k Matern32) Eval(a, b model.FeatureVector) float64 {
	r := math.Sqrt(3*squaredDistance(a, b)) / k.LengthScale
	return k.Variance * (1 + r) * math.Exp(-r)
}

// NewKernel builds a kernel by name from configuration values.
func NewKernel(name string, lengthScale, variance, sigma0 float64) (Kernel, error) {
	switch name {
	case "", "rbf":
		if lengthScale <= 0 || variance <= 0 {
			return nil, &model.ConfigError{Field: "gp", Reason: "rbf needs positive length_scale and variance"}
		}
		return RBF{LengthScale: lengthScale, Variance: variance}, nil
	case "matern32":
		if lengthScale <= 0 || variance <= 0 {
			return nil, &model.ConfigError{Field: "gp", Reason: "matern32 needs positive length_scale and variance"}
		}
		return Matern32{LengthScale: lengthScale, Variance: variance}, nil
	case "linear":
		if sigma0 < 0 {
			return nil, &model.ConfigError{Field: "gp.sigma0", Reason: "must not be negative"}
		}
		return Linear{Sigma0: sigma0}, nil
	default:
		return nil, fmt.Errorf("unknown kernel %q", name)
	}
}

func squaredDistance(a, b model.FeatureVector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
