// Package api implements the Gravita HTTP API.
//
// The API exposes the same pipeline the CLI uses: clients POST a scene
// with layout options and get back the pass result plus any requested
// artifacts. Every computed layout is persisted to the configured store
// so results can be fetched by ID later.
//
// # Endpoints
//
//	POST /v1/layout        Run a layout pass over an inline scene
//	GET  /v1/layouts       List recent layout records
//	GET  /v1/layouts/{id}  Fetch one layout record
//	GET  /healthz          Liveness probe
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gravitylab/gravita/pkg/pipeline"
	"github.com/gravitylab/gravita/pkg/store"
)

// Server hosts the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	http   *http.Server
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Runner executes layout pipelines. Required.
	Runner *pipeline.Runner

	// Store persists layout records. Defaults to an in-memory store.
	Store store.Store

	// Logger defaults to the package default logger.
	Logger *log.Logger
}

// New creates a server. The HTTP listener is not started until
// [Server.ListenAndServe].
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{
		runner: opts.Runner,
		store:  opts.Store,
		logger: opts.Logger,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router. Exposed separately so tests can drive
// the handlers through httptest without a listener.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Get("/layouts", s.handleListLayouts)
		r.Get("/layouts/{id}", s.handleGetLayout)
	})

	return r
}

// ListenAndServe runs the server until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
