// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/source"
)

// Analyzer runs one analysis request. *pipeline.Pipeline implements it.
type Analyzer interface {
	AnalyzeQuery(ctx context.Context, q source.Query) (model.AnalysisResult, error)
}

// Learner accepts labeled updates. *engine.Engine implements it.
type Learner interface {
	Update(docs []string, labels []model.Label) error
	Trained() bool
	Labels() model.LabelSet
}

// Server serializes all requests that touch the engine behind one mutex.
type Server struct {
	echo     *echo.Echo
	addr     string
	analyzer Analyzer
	learner  Learner
	count    int
	logger   *slog.Logger
	clock    clockwork.Clock

	mu        sync.Mutex
	startTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock used for uptime.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithDefaultCount sets the document count used when a request omits it.
func WithDefaultCount(n int) Option {
	return func(s *Server) { s.count = n }
}

// New creates a Server listening on addr once Start is called.
func New(addr string, a Analyzer, l Learner, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:     e,
		addr:     addr,
		analyzer: a,
		learner:  l,
		count:    50,
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(s)
	}
	s.startTime = s.clock.Now()
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.addr)
	err := s.echo.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
