// Package async queues analysis results for background delivery, so an HTTP
// handler returns without waiting on a slow sink.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/output"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output closed")

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets how many results may wait for delivery. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback for failed deliveries. The error names the
// result ID. Default: log at warn level.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.onError = f }
}

// WithDropOnFull makes Write drop the result instead of waiting when the
// queue is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for queued results.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Async) { a.logger = l }
}

// Async delivers results to an inner output from a background goroutine.
type Async struct {
	inner        output.Output
	queue        chan model.AnalysisResult
	done         chan struct{}
	onError      func(error)
	logger       *slog.Logger
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration
	dropped      atomic.Int64

	// mu guards closed against a concurrent send on the closed queue.
	mu     sync.RWMutex
	closed bool
}

// New wraps inner and starts the delivery goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.onError == nil {
		a.onError = func(err error) { a.logger.Warn("async output delivery failed", "error", err) }
	}
	a.queue = make(chan model.AnalysisResult, a.bufSize)
	a.done = make(chan struct{})
	go a.deliver()
	return a
}

// Write queues the result. When the queue is full it waits until there is
// room or ctx ends, unless WithDropOnFull is set.
func (a *Async) Write(ctx context.Context, result model.AnalysisResult) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if a.dropOnFull {
		select {
		case a.queue <- result:
		default:
			a.dropped.Add(1)
			a.logger.Warn("async output queue full, dropping result",
				"id", result.ID, "keyword", result.Keyword)
		}
		return nil
	}
	select {
	case a.queue <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many results were discarded because the queue was full.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting results, waits up to the drain timeout for queued
// ones, then closes the inner output. Calling Close twice is a no-op.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		a.logger.Warn("async output drain timed out", "pending", len(a.queue))
	}
	return a.inner.Close()
}

func (a *Async) deliver() {
	defer close(a.done)
	for result := range a.queue {
		if err := a.inner.Write(context.Background(), result); err != nil {
			a.onError(fmt.Errorf("deliver result %s: %w", result.ID, err))
		}
	}
}
