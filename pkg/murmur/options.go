package murmur

import (
	"io"
	"log/slog"

	"github.com/crimson-sun/murmur/internal/config"
)

type options struct {
	engine   config.EngineConfig
	examples []Example
	logger   *slog.Logger
}

// Option configures a Murmur instance.
type Option func(*options)

// WithFamily selects the classifier: "tree_ensemble" (default), "linear"
// or "naive_bayes".
func WithFamily(family string) Option {
	return func(o *options) {
		o.engine.Family = family
	}
}

// WithSeed fixes the random seed for splits and tree sampling.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.engine.Seed = seed
	}
}

// WithExamples trains on the given examples instead of the seed corpus.
func WithExamples(examples ...Example) Option {
	return func(o *options) {
		o.examples = examples
	}
}

// WithExplanations toggles per-post feature attributions. Default: on.
func WithExplanations(on bool) Option {
	return func(o *options) {
		o.engine.Explain = on
	}
}

// WithUncertainty enables Gaussian-process uncertainty estimates. Default: off.
func WithUncertainty(on bool) Option {
	return func(o *options) {
		o.engine.Uncertainty.Enabled = on
	}
}

// WithClusters sets the grouping parameters: DBSCAN radius and minimum
// neighbors, and the number of hierarchical groups.
func WithClusters(eps float64, minPoints, k int) Option {
	return func(o *options) {
		o.engine.Eps = eps
		o.engine.MinPoints = minPoints
		o.engine.K = k
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func defaultOptions() options {
	return options{
		engine: config.Default().Engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
