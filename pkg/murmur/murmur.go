package murmur

import (
	"context"
	"fmt"
	"sync"

	"github.com/crimson-sun/murmur/internal/dataset"
	"github.com/crimson-sun/murmur/internal/engine"
	"github.com/crimson-sun/murmur/internal/source"
	"github.com/crimson-sun/murmur/internal/source/static"
)

// Murmur is a trained sentiment analyzer.
type Murmur struct {
	mu     sync.Mutex
	engine *engine.Engine
}

// New creates and trains a Murmur instance.
func New(opts ...Option) (*Murmur, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.New(o.engine, engine.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("murmur: %w", err)
	}

	var ds dataset.Dataset
	if o.examples == nil {
		ds, err = dataset.Seed(eng.Labels())
	} else {
		ds, err = parseExamples(o.examples, eng)
	}
	if err != nil {
		return nil, fmt.Errorf("murmur: %w", err)
	}
	if _, err := eng.Train(ds.Texts, ds.Labels); err != nil {
		return nil, fmt.Errorf("murmur: %w", err)
	}
	return &Murmur{engine: eng}, nil
}

// Analyze classifies the posts that mention keyword, explains and groups
// them. An empty keyword keeps every post.
func (m *Murmur) Analyze(keyword string, posts []string) (Result, error) {
	docs, err := static.New(posts...).Fetch(context.Background(), source.Config{}, source.Query{Keyword: keyword})
	if err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	res, err := m.engine.Analyze(keyword, docs)
	if err != nil {
		return Result{}, fmt.Errorf("murmur: %w", err)
	}
	return resultFromAnalysis(res), nil
}

// Update folds new labeled examples into the model.
func (m *Murmur) Update(examples ...Example) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, err := parseExamples(examples, m.engine)
	if err != nil {
		return fmt.Errorf("murmur: %w", err)
	}
	if err := m.engine.Update(ds.Texts, ds.Labels); err != nil {
		return fmt.Errorf("murmur: %w", err)
	}
	return nil
}

// Message returns a message suitable for end users for an error returned
// by this package.
func Message(err error) string {
	return engine.UserMessage(err)
}

func parseExamples(examples []Example, eng *engine.Engine) (dataset.Dataset, error) {
	entries := make([]dataset.Entry, len(examples))
	for i, e := range examples {
		entries[i] = dataset.Entry{Text: e.Text, Label: e.Label}
	}
	return dataset.Parse(entries, eng.Labels())
}
