// Package api serves a layout store over HTTP.
//
// The API is a thin JSON surface over [store.Store]: each mutation endpoint
// calls the matching store operation and answers with the resulting state.
// Store operations never fail; the response's "changed" field tells the
// caller whether the edit was applied or ignored. The only edit that
// reports an error is a layout replacement that would hide the last copy of
// a required widget, answered with 409 Conflict.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/state
//	GET    /api/snapshot
//	PUT    /api/widgets/{widget}
//	DELETE /api/widgets/{widget}
//	GET    /api/layouts/current
//	PUT    /api/layouts/{layout}
//	DELETE /api/layouts/{layout}
//	GET    /api/layouts/{layout}/available
//	GET    /api/layouts/{layout}/can-add/{widget}
//	POST   /api/layouts/{layout}/split
//	POST   /api/layouts/{layout}/remove
//	POST   /api/layouts/{layout}/switch
//	POST   /api/scenes/{scene}/activate
//	POST   /api/scenes/{scene}/layout
//	POST   /api/scenes/{scene}/layouts
//	POST   /api/editing/start
//	POST   /api/editing/finish
//	POST   /api/rerender
//	DELETE /api/error
//
// When a persistence store is configured, every committed change is saved.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/tessera/pkg/observability"
	"github.com/matzehuels/tessera/pkg/persist"
	"github.com/matzehuels/tessera/pkg/store"
)

// Config configures a [Server].
type Config[T any] struct {
	// Addr to listen on (default: :8080).
	Addr string

	// Store is the layout store to serve. Required.
	Store *store.Store[T]

	// Persist receives a snapshot after every committed change. Optional.
	Persist persist.Store
	// Key is the persistence key (default: persist.DefaultKey).
	Key string
	// TTL of saved snapshots; zero keeps them until overwritten.
	TTL time.Duration

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Server is the HTTP API server.
type Server[T any] struct {
	store   *store.Store[T]
	persist persist.Store
	key     string
	ttl     time.Duration
	logger  *log.Logger

	// editMu serializes mutating handlers so each one observes only its
	// own change.
	editMu sync.Mutex

	// saveMu orders autosaves; saved is the last snapshot written.
	saveMu sync.Mutex
	saved  *store.State[T]

	router      chi.Router
	httpServer  *http.Server
	unsubscribe func()
}

// New creates a server and, when persistence is configured, subscribes it
// to the store for autosave.
func New[T any](cfg Config[T]) *Server[T] {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Key == "" {
		cfg.Key = persist.DefaultKey
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server[T]{
		store:   cfg.Store,
		persist: cfg.Persist,
		key:     cfg.Key,
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.persist != nil {
		s.unsubscribe = s.store.Subscribe(s.autosave)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server[T]) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server[T]) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the server and the autosave subscription.
func (s *Server[T]) Shutdown(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server[T]) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/snapshot", s.handleSnapshot)

		r.Route("/widgets/{widget}", func(r chi.Router) {
			r.Put("/", s.handleSetWidget)
			r.Delete("/", s.handleDeleteWidget)
		})

		r.Get("/layouts/current", s.handleCurrentLayout)
		r.Route("/layouts/{layout}", func(r chi.Router) {
			r.Put("/", s.handleSetLayout)
			r.Delete("/", s.handleDeleteLayout)
			r.Get("/available", s.handleAvailable)
			r.Get("/can-add/{widget}", s.handleCanAdd)
			r.Post("/split", s.handleSplit)
			r.Post("/remove", s.handleRemove)
			r.Post("/switch", s.handleSwitchWidget)
		})

		r.Route("/scenes/{scene}", func(r chi.Router) {
			r.Post("/activate", s.handleSwitchScene)
			r.Post("/layout", s.handleSwitchLayout)
			r.Post("/layouts", s.handleAddLayout)
		})

		r.Post("/editing/start", s.handleStartEditing)
		r.Post("/editing/finish", s.handleFinishEditing)
		r.Post("/rerender", s.handleRerender)
		r.Delete("/error", s.handleClearError)
	})
	return r
}

// requestID tags each request with an X-Request-ID, generating one when the
// client sent none.
func (s *Server[T]) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// instrument logs each request and reports it to the HTTP hooks.
func (s *Server[T]) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", status,
			"duration", elapsed, "id", w.Header().Get("X-Request-ID"))
	})
}

// autosave writes the store's latest snapshot to the persistence store.
// Listeners run on the mutating goroutine, so saves from concurrent edits
// are serialized here and each one writes whatever is current when it gets
// the lock. A snapshot already written is not written again.
func (s *Server[T]) autosave(_, _ *store.State[T]) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	cur := s.store.Get()
	if cur == s.saved {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveState(ctx, s.persist, s.key, s.ttl, cur); err != nil {
		s.logger.Warn("autosave failed", "key", s.key, "err", err)
		return
	}
	s.saved = cur
}
