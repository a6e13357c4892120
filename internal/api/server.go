package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dextracker/internal/config"
	"dextracker/internal/logging"
	"dextracker/internal/metrics"
	"dextracker/internal/store"
)

// gracefulShutdownTimeout bounds how long Run waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds what the server needs.
type Deps struct {
	Config   config.ServerConfig
	Metrics  config.MetricsConfig
	Store    *store.Store
	Logger   *logging.Logger
	Recorder metrics.Recorder
	// Gatherer backs the metrics endpoint. Nil disables it.
	Gatherer prometheus.Gatherer
	Version  string
}

// Server is the tracker HTTP server.
type Server struct {
	cfg        config.ServerConfig
	metricsCfg config.MetricsConfig
	store      *store.Store
	logger     *logging.Logger
	recorder   metrics.Recorder
	gatherer   prometheus.Gatherer
	version    string

	handlerOnce sync.Once
	handler     http.Handler
}

// New validates deps and returns a Server. Nothing listens until Run.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Config.MaxBodyBytes <= 0 {
		deps.Config.MaxBodyBytes = 1 << 20
	}

	s := &Server{
		cfg:        deps.Config,
		metricsCfg: deps.Metrics,
		store:      deps.Store,
		logger:     deps.Logger,
		recorder:   deps.Recorder,
		gatherer:   deps.Gatherer,
		version:    deps.Version,
	}
	s.observeStore()
	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.buildRouter()
	})
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// observeStore publishes the current catch counts.
func (s *Server) observeStore() {
	st := s.store.Stats()
	s.recorder.SetCaught(st.Records, st.Normal, st.Shiny)
}
