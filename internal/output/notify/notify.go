// Package notify delivers plain-text analysis summaries.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier receives the plain-text summary of an analysis. Delivery
// mechanics are the implementation's concern.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Writer writes each notification to an io.Writer as a subject line
// followed by the body and a blank line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a Writer notifier.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Notify(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.w, "%s\n%s\n\n", subject, body); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, string, string) error { return nil }
