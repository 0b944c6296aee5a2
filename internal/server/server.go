// Package server exposes a read-only status API while a run is active:
// snapshot endpoints over the scheduler plus a Server-Sent Events bridge off
// the event bus. It is optional plumbing; the scheduler has no dependency on
// it.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/internal/scheduler"
)

// Server is the gotr status API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	scheduler scheduler.Scheduler
	bus       *events.Bus
	startTime time.Time
}

// New creates a Server with all routes registered. bus may be nil to disable
// the SSE endpoint.
func New(sched scheduler.Scheduler, bus *events.Bus, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		scheduler: sched,
		bus:       bus,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/summary", s.handleSummary)
		r.Get("/units", s.handleUnits)
		if s.bus != nil {
			r.Get("/events", s.handleSSEEvents)
		}
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves the status API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("status server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
