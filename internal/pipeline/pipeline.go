package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/crimson-sun/murmur/internal/metrics"
	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/output"
	"github.com/crimson-sun/murmur/internal/output/notify"
	"github.com/crimson-sun/murmur/internal/source"
)

// Analyzer turns a batch of documents into an analysis result.
// *engine.Engine implements it.
type Analyzer interface {
	Analyze(keyword string, docs []model.Document) (model.AnalysisResult, error)
}

// Pipeline connects a text source, analyzer, output and notifier. It is not
// safe for concurrent use because the analyzer usually is not.
type Pipeline struct {
	source   source.Source
	srcCfg   source.Config
	count    int
	analyzer Analyzer
	output   output.Output
	notifier notify.Notifier
	logger   *slog.Logger
	clock    clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier sets where summaries are sent. Default: discarded.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithCount sets how many documents are requested per analysis.
func WithCount(n int) Option {
	return func(p *Pipeline) { p.count = n }
}

// WithLogger sets the pipeline's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock sets the clock driving Watch.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline from the given components.
func New(src source.Source, srcCfg source.Config, a Analyzer, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   src,
		srcCfg:   srcCfg,
		analyzer: a,
		output:   out,
		notifier: notify.Discard{},
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Analyze runs one request: fetch posts for keyword, analyze them, write
// the result and send its summary. A failed fetch is logged and analyzed as
// whatever documents it returned, usually none. Any error aborts only this
// request; the result is returned even when writing it failed.
func (p *Pipeline) Analyze(ctx context.Context, keyword string) (model.AnalysisResult, error) {
	return p.AnalyzeQuery(ctx, source.Query{Keyword: keyword, Count: p.count})
}

// AnalyzeQuery is Analyze with an explicit document count.
func (p *Pipeline) AnalyzeQuery(ctx context.Context, q source.Query) (model.AnalysisResult, error) {
	keyword := q.Keyword
	docs, err := p.source.Fetch(ctx, p.srcCfg, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.AnalysisResult{}, ctxErr
		}
		metrics.SourceFetchErrors.WithLabelValues(p.srcCfg.Provider).Inc()
		p.logger.Warn("source fetch failed, continuing with partial corpus",
			"provider", p.srcCfg.Provider, "keyword", keyword, "documents", len(docs), "error", err)
	}

	res, err := p.analyzer.Analyze(keyword, docs)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("pipeline analyze: %w", err)
	}

	if err := p.output.Write(ctx, res); err != nil {
		metrics.OutputWriteErrors.Inc()
		return res, fmt.Errorf("pipeline output: %w", err)
	}

	if err := p.notifier.Notify(ctx, "murmur: "+keyword, res.SummaryText()); err != nil {
		p.logger.Warn("notification failed", "keyword", keyword, "error", err)
	}
	return res, nil
}

// Watch analyzes keyword immediately and then every interval until ctx is
// cancelled. Failed requests are logged and do not stop the loop.
func (p *Pipeline) Watch(ctx context.Context, keyword string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("pipeline watch: interval must be positive, got %s", interval)
	}
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Analyze(ctx, keyword); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("analysis failed", "keyword", keyword, "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
