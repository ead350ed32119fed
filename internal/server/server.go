// Package server exposes flattened cells over HTTP.
//
// Cells are looked up by name as <name>.mag below a root directory and
// flattened through a [pipeline.Runner], so the server shares its cache with
// the CLI. Concurrent requests for the same cell share one load.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/magic"
	"github.com/matzehuels/magflat/pkg/observability"
	"github.com/matzehuels/magflat/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// serve context is cancelled.
const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	// Root is the directory cell files are read from.
	Root string

	// Normalize and MaxDepth are passed to the loader.
	Normalize bool
	MaxDepth  int

	// Runner flattens and renders cells. Nil means an uncached runner.
	Runner *pipeline.Runner

	// Logger receives request logs. Nil discards them.
	Logger *log.Logger
}

// Server answers layer and bounds queries for the cells under a root
// directory.
type Server struct {
	root      string
	normalize bool
	maxDepth  int
	runner    *pipeline.Runner
	logger    *log.Logger
	stats     *Stats
	loads     singleflight.Group
	router    chi.Router
}

// New creates a server. It registers the server's counters as the global
// load and cache hooks.
func New(cfg Config) (*Server, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve root %s", cfg.Root)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "root %s is not a directory", cfg.Root)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}

	s := &Server{
		root:      root,
		normalize: cfg.Normalize,
		maxDepth:  cfg.MaxDepth,
		runner:    runner,
		logger:    logger,
		stats:     NewStats(),
	}
	observability.SetLoadHooks(s.stats)
	observability.SetCacheHooks(s.stats)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Route("/cells/{cell}", func(r chi.Router) {
		r.Get("/layers", s.handleLayers)
		r.Get("/layers/{layer}", s.handleLayer)
		r.Get("/bounds", s.handleBounds)
		r.Get("/render.svg", s.handleRender)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no such endpoint"), http.StatusNotFound)
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the server's counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving cells", "addr", addr, "root", s.root)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// flatten loads the named cell. Concurrent calls for the same cell share
// one load.
func (s *Server) flatten(ctx context.Context, name string) (*pipeline.Flattened, error) {
	if err := errors.ValidateCellName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, name+magic.Ext)

	v, err, shared := s.loads.Do(path, func() (any, error) {
		return s.runner.Flatten(context.WithoutCancel(ctx), pipeline.Options{
			Path:      path,
			Normalize: s.normalize,
			MaxDepth:  s.maxDepth,
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.stats.sharedLoads.Add(1)
	}
	return v.(*pipeline.Flattened), nil
}
