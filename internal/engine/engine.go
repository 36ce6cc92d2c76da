package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/crimson-sun/murmur/internal/config"
	"github.com/crimson-sun/murmur/internal/engine/classifier"
	"github.com/crimson-sun/murmur/internal/engine/cluster"
	"github.com/crimson-sun/murmur/internal/engine/dedup"
	"github.com/crimson-sun/murmur/internal/engine/explainer"
	"github.com/crimson-sun/murmur/internal/engine/gp"
	"github.com/crimson-sun/murmur/internal/engine/vectorizer"
	"github.com/crimson-sun/murmur/internal/metrics"
	"github.com/crimson-sun/murmur/internal/model"
)

// Engine orchestrates the vectorize → classify → explain → cluster →
// uncertainty pipeline. It owns one vectorizer and one model at a time and
// is not safe for concurrent use.
type Engine struct {
	family       classifier.Family
	opts         classifier.Options
	maxFeatures  int
	norm         vectorizer.Norm
	testFraction float64
	eps          float64
	minPoints    int
	k            int
	linkage      cluster.Linkage
	metric       cluster.Metric

	explainer *explainer.Explainer // nil when explanations are disabled
	dedup     *dedup.Deduplicator
	kernel    gp.Kernel // nil when uncertainty is disabled
	noise     float64

	labels model.LabelSet
	logger *slog.Logger
	clock  clockwork.Clock

	vec   *vectorizer.Vectorizer
	model classifier.Model
	gp    *gp.Classifier

	// Vectors and labels the GP classifier is conditioned on.
	historyX []model.FeatureVector
	historyY []model.Label
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the clock used for result timestamps and durations.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLabels sets the label names used in summaries.
func WithLabels(ls model.LabelSet) Option {
	return func(e *Engine) { e.labels = ls }
}

// New validates cfg and creates an untrained Engine.
func New(cfg config.EngineConfig, opts ...Option) (*Engine, error) {
	full := config.Default()
	full.Engine = cfg
	if err := full.Validate(); err != nil {
		return nil, err
	}

	// Validate guarantees these parse.
	family, _ := classifier.ParseFamily(cfg.Family)
	linkage, _ := cluster.ParseLinkage(cfg.Linkage)
	metric, _ := cluster.ParseMetric(cfg.Metric)

	e := &Engine{
		family:       family,
		opts:         cfg.ClassifierOptions(),
		maxFeatures:  cfg.MaxFeatures,
		norm:         vectorizer.ParseNorm(cfg.Norm),
		testFraction: cfg.TestFraction,
		eps:          cfg.Eps,
		minPoints:    cfg.MinPoints,
		k:            cfg.K,
		linkage:      linkage,
		metric:       metric,
		dedup:        dedup.New(dedup.Config{Window: cfg.DedupWindow}),
		labels:       model.DefaultLabels(),
		logger:       slog.Default(),
		clock:        clockwork.NewRealClock(),
	}
	if cfg.Explain {
		e.explainer = explainer.New(cfg.TopContributions)
	}
	if u := cfg.Uncertainty; u.Enabled {
		k, err := gp.NewKernel(u.Kernel, u.LengthScale, u.Variance, u.Sigma0)
		if err != nil {
			return nil, err
		}
		e.kernel = k
		e.noise = u.Noise
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Trained reports whether a model is available for Analyze.
func (e *Engine) Trained() bool { return e.model != nil }

// Family returns the configured model family.
func (e *Engine) Family() classifier.Family { return e.family }

// Labels returns the label set used for naming.
func (e *Engine) Labels() model.LabelSet { return e.labels }

// TrainReport summarizes a Train call.
type TrainReport struct {
	Family     string        `json:"family"`
	Samples    int           `json:"samples"`
	Classes    []model.Label `json:"classes"`
	Vocabulary int           `json:"vocabulary"`
	// Evaluated is false when the held-out evaluation was disabled or
	// skipped because the split left fewer than two training classes.
	Evaluated bool          `json:"evaluated"`
	TestSize  int           `json:"test_size"`
	Accuracy  float64       `json:"accuracy"`
	Duration  time.Duration `json:"duration"`
}

// Train fits a fresh vocabulary and model on the labeled corpus, replacing
// any previous state. With a test fraction configured, a seeded held-out
// split is evaluated first; the final model is always trained on all data.
func (e *Engine) Train(docs []string, labels []model.Label) (TrainReport, error) {
	start := e.clock.Now()
	if len(docs) != len(labels) {
		return TrainReport{}, fmt.Errorf("train: %d documents but %d labels", len(docs), len(labels))
	}
	classes := model.DistinctLabels(labels)
	if len(docs) < 2 || len(classes) < 2 {
		return TrainReport{}, &model.InsufficientDataError{Samples: len(docs), Classes: len(classes)}
	}

	vec := vectorizer.New(e.maxFeatures, e.norm)
	X, err := vec.FitTransform(docs)
	if err != nil {
		return TrainReport{}, fmt.Errorf("vectorize: %w", err)
	}

	report := TrainReport{
		Family:     e.family.String(),
		Samples:    len(docs),
		Classes:    classes,
		Vocabulary: vec.Width(),
	}

	if e.testFraction > 0 {
		trainX, testX, trainY, testY := classifier.Split(X, labels, e.testFraction, e.opts.Seed)
		if len(model.DistinctLabels(trainY)) < 2 {
			e.logger.Warn("skipping held-out evaluation: split leaves fewer than two classes",
				"samples", len(docs), "test_fraction", e.testFraction)
		} else {
			m, err := classifier.Train(e.family, trainX, trainY, e.opts)
			if err != nil {
				return TrainReport{}, fmt.Errorf("evaluate: %w", err)
			}
			pred, err := classifier.Predict(m, testX)
			if err != nil {
				return TrainReport{}, fmt.Errorf("evaluate: %w", err)
			}
			report.Evaluated = true
			report.TestSize = len(testX)
			report.Accuracy = classifier.Accuracy(pred, testY)
			metrics.HoldoutAccuracy.Set(report.Accuracy)
		}
	}

	m, err := classifier.Train(e.family, X, labels, e.opts)
	if err != nil {
		return TrainReport{}, fmt.Errorf("train: %w", err)
	}

	var gpc *gp.Classifier
	if e.kernel != nil {
		gpc = gp.NewClassifier(e.kernel, e.noise)
		if err := gpc.Fit(X, labels); err != nil {
			return TrainReport{}, fmt.Errorf("fit uncertainty: %w", err)
		}
	}

	e.vec = vec
	e.model = m
	e.gp = gpc
	e.historyX = append([]model.FeatureVector(nil), X...)
	e.historyY = append([]model.Label(nil), labels...)

	report.Duration = e.clock.Since(start)
	metrics.TrainingsTotal.WithLabelValues(report.Family).Inc()
	metrics.VocabularySize.Set(float64(report.Vocabulary))
	e.logger.Info("model trained",
		"family", report.Family,
		"samples", report.Samples,
		"classes", len(classes),
		"vocabulary", report.Vocabulary,
		"evaluated", report.Evaluated,
		"accuracy", report.Accuracy,
		"duration", report.Duration)
	return report, nil
}

// Update folds new labeled documents into the current model. Documents are
// vectorized with the existing vocabulary, so unseen terms are dropped.
func (e *Engine) Update(docs []string, labels []model.Label) error {
	if e.model == nil {
		return model.ErrNotFitted
	}
	if len(docs) != len(labels) {
		return fmt.Errorf("update: %d documents but %d labels", len(docs), len(labels))
	}
	if len(docs) == 0 {
		return nil
	}

	X, err := e.vec.Transform(docs)
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}
	m, err := classifier.Update(e.model, X, labels)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	historyX := append(append([]model.FeatureVector(nil), e.historyX...), X...)
	historyY := append(append([]model.Label(nil), e.historyY...), labels...)
	var gpc *gp.Classifier
	if e.kernel != nil {
		gpc = gp.NewClassifier(e.kernel, e.noise)
		if err := gpc.Fit(historyX, historyY); err != nil {
			return fmt.Errorf("refit uncertainty: %w", err)
		}
	}

	e.model = m
	e.gp = gpc
	e.historyX, e.historyY = historyX, historyY
	metrics.UpdatesTotal.WithLabelValues(e.family.String()).Inc()
	e.logger.Info("model updated", "family", e.family.String(), "examples", len(docs), "classes", len(m.Classes()))
	return nil
}

// Analyze classifies, explains and clusters the documents for one request.
// Documents without any usable terms are skipped and counted; duplicate
// posts are analyzed once and weighted by their multiplicity in the summary.
func (e *Engine) Analyze(keyword string, docs []model.Document) (model.AnalysisResult, error) {
	start := e.clock.Now()
	res, err := e.analyze(keyword, docs, start)
	metrics.AnalysisDuration.Observe(e.clock.Since(start).Seconds())
	metrics.AnalysesTotal.WithLabelValues(statusOf(err)).Inc()
	return res, err
}

func (e *Engine) analyze(keyword string, docs []model.Document, start time.Time) (model.AnalysisResult, error) {
	if e.model == nil {
		return model.AnalysisResult{}, model.ErrNotFitted
	}

	// keptIdx maps positions in kept back to the caller's docs.
	kept := make([]model.Document, 0, len(docs))
	keptIdx := make([]int, 0, len(docs))
	for i, d := range docs {
		if dedup.Key(d.Text) == "" {
			continue
		}
		kept = append(kept, d)
		keptIdx = append(keptIdx, i)
	}
	skipped := len(docs) - len(kept)
	if skipped > 0 {
		e.logger.Debug("skipped documents without terms", "keyword", keyword, "skipped", skipped)
	}

	groups := e.dedup.DeduplicateBatch(kept)
	if len(groups) == 0 {
		return model.AnalysisResult{}, model.ErrEmptyCorpus
	}

	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = g.Doc.Text
	}
	X, err := e.vec.Transform(texts)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("vectorize: %w", err)
	}

	probs, err := classifier.Probabilities(e.model, X)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("predict: %w", err)
	}
	classes := e.model.Classes()

	var explanations []model.Explanation
	if e.explainer != nil {
		explanations, err = e.explainer.Explain(e.model, X, e.vec.FeatureNames())
		var unsupported *model.UnsupportedModelError
		switch {
		case errors.As(err, &unsupported):
			e.logger.Warn("explanations unavailable", "family", unsupported.Family)
			explanations = nil
		case err != nil:
			return model.AnalysisResult{}, fmt.Errorf("explain: %w", err)
		}
	}

	density, err := cluster.FitDensity(X, e.eps, e.minPoints, e.metric)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("density clustering: %w", err)
	}
	k := min(e.k, len(X))
	groupsOf, err := cluster.FitHierarchical(X, e.linkage, k, e.metric)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("hierarchical clustering: %w", err)
	}

	var uncertainty []gp.Prediction
	if e.gp != nil {
		uncertainty, err = e.gp.Predict(X)
		if err != nil {
			return model.AnalysisResult{}, fmt.Errorf("uncertainty: %w", err)
		}
	}

	counts := make(map[model.Label]int, len(e.labels))
	for code := range e.labels {
		counts[code] = 0
	}
	results := make([]model.DocumentResult, len(groups))
	for i, g := range groups {
		best := 0
		for c := range probs[i] {
			if probs[i][c] > probs[i][best] {
				best = c
			}
		}
		label := classes[best]
		r := model.DocumentResult{
			Index:      keptIdx[g.Indices[0]],
			Text:       g.Doc.Text,
			Count:      g.Count(),
			Label:      label,
			LabelName:  e.labels.Name(label),
			Confidence: probs[i][best],
			Cluster:    density[i],
			Group:      groupsOf[i],
		}
		if explanations != nil {
			r.Explanation = &explanations[i]
		}
		if uncertainty != nil {
			u := uncertainty[i].Uncertainty
			r.Uncertainty = &u
		}
		results[i] = r
		counts[label] += g.Count()
		metrics.PredictionsTotal.WithLabelValues(r.LabelName).Add(float64(g.Count()))
	}

	clusters := cluster.Summarize(density)
	duplicates := len(kept) - len(groups)
	metrics.DocumentsTotal.WithLabelValues("analyzed").Add(float64(len(groups)))
	metrics.DocumentsTotal.WithLabelValues("skipped").Add(float64(skipped))
	metrics.DocumentsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	metrics.NoiseDocuments.Add(float64(clusters.Noise))

	res := model.AnalysisResult{
		ID:         uuid.New(),
		Keyword:    keyword,
		CreatedAt:  start,
		Duration:   e.clock.Since(start),
		Family:     e.family.String(),
		Documents:  len(docs),
		Unique:     len(groups),
		Skipped:    skipped,
		Duplicates: duplicates,
		Results:    results,
		Summary:    e.summary(counts),
		Clusters:   clusters,
	}
	e.logger.Info("analysis complete",
		"keyword", keyword,
		"documents", res.Documents,
		"unique", res.Unique,
		"skipped", res.Skipped,
		"noise", clusters.Noise,
		"duration", res.Duration)
	return res, nil
}

func (e *Engine) summary(counts map[model.Label]int) []model.LabelCount {
	out := make([]model.LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, model.LabelCount{Label: l, Name: e.labels.Name(l), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrEmptyCorpus):
		return "empty"
	case errors.Is(err, model.ErrNotFitted):
		return "not_fitted"
	default:
		return "error"
	}
}
