// Package multi delivers one analysis result to several named sinks.
package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/output"
)

// Sink is a named destination. The name shows up in errors and logs.
type Sink struct {
	Name   string
	Output output.Output
}

// Multi writes each result to every sink in order. A failing sink does not
// stop delivery to the rest; its error is reported under its name.
type Multi struct {
	sinks []Sink
}

// New creates a Multi over sinks. Sinks with a nil Output are ignored.
func New(sinks ...Sink) *Multi {
	m := &Multi{sinks: make([]Sink, 0, len(sinks))}
	for _, s := range sinks {
		if s.Output != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Names lists the sinks in delivery order.
func (m *Multi) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

func (m *Multi) Write(ctx context.Context, result model.AnalysisResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Output.Write(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("output %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes sinks in reverse order, so a sink added last (typically the
// one wrapping others' resources) shuts down first.
func (m *Multi) Close() error {
	var errs []error
	for i := len(m.sinks) - 1; i >= 0; i-- {
		s := m.sinks[i]
		if err := s.Output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
