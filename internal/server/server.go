// Package server exposes an editing session over HTTP.
//
// A remote renderer (a browser canvas, a script) plays the role the terminal
// editor plays locally: it sends user intents (tap, select, drag, delete)
// and receives the resulting delta in the response. The server owns one
// session and serializes every request against it.
//
// Errors are returned as {"code": "...", "message": "..."} with the status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphbuilder/pkg/session"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

const (
	maxBodyBytes    = 10 << 20
	shutdownTimeout = 5 * time.Second
)

// Server serves one editing session.
type Server struct {
	mu      sync.Mutex
	sess    *session.Session
	pending []session.Delta

	store  store.Store
	name   string
	strict bool
	logger *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables POST /save, which writes the graph to st under name.
func WithStore(st store.Store, name string) Option {
	return func(s *Server) {
		s.store = st
		s.name = name
	}
}

// WithStrict makes PUT /graph reject documents that lenient decoding would
// repair.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server for sess. The server becomes the session's renderer,
// so sess must not be shared with another renderer.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess:   sess,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	sess.SetRenderer(session.RendererFunc(func(d session.Delta) {
		s.pending = append(s.pending, d)
	}))
	return s
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(observe)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/graph", func(r chi.Router) {
		r.Get("/", s.getGraph)
		r.Put("/", s.putGraph)
		r.Get("/snapshot", s.getSnapshot)
		r.Get("/svg", s.getSVG)
	})

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.addNode)
		r.Delete("/{id}", s.deleteNode)
		r.Put("/{id}/position", s.moveNode)
	})

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", s.getSelection)
		r.Post("/", s.selectNode)
		r.Delete("/", s.clearSelection)
		r.Put("/position", s.moveSelected)
		r.Delete("/node", s.deleteSelected)
	})

	r.Route("/edges", func(r chi.Router) {
		r.Post("/", s.connect)
		r.Delete("/{a}/{b}", s.disconnect)
	})

	r.Post("/save", s.save)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving graph API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// do runs fn against the session under the lock and returns the deltas it
// emitted.
func (s *Server) do(fn func(sess *session.Session) error) ([]session.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	err := fn(s.sess)
	deltas := s.pending
	s.pending = nil
	return deltas, err
}
