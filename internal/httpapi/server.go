package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/allaspectsdev/canonstore"
	"github.com/allaspectsdev/canonstore/internal/telemetry"
)

// Server is the HTTP server for the canonstore REST/SSE facade. It binds
// the chi router to a configured address with graceful shutdown.
type Server struct {
	router  chi.Router
	handler *Handler
	httpSrv *http.Server
}

// NewServer creates a Server exposing engine over the routes named in the
// specification's DOMAIN STACK section. If tracingEnabled is true, the
// OpenTelemetry HTTP middleware wraps every request.
func NewServer(engine *canonstore.Engine, logger zerolog.Logger, addr string, readTimeout, writeTimeout, idleTimeout time.Duration, tracingEnabled bool) *Server {
	h := NewHandler(engine, logger)
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(telemetry.HTTPMiddleware)
	}

	r.Post("/entries", h.HandleCreate)
	r.Get("/entries", h.HandleIterate)
	r.Delete("/entries", h.HandleClear)
	r.Get("/entries/{fingerprint}", h.HandleGet)
	r.Head("/entries/{fingerprint}", h.HandleHas)
	r.Delete("/entries/{fingerprint}", h.HandleDelete)

	r.Get("/health", h.HandleHealth)
	r.Get("/metrics", h.HandleMetrics)
	r.Get("/diagnostics", h.HandleDiagnostics)

	srv := &Server{
		router:  r,
		handler: h,
		httpSrv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
	return srv
}

// Router returns the underlying chi.Router, useful for tests or additional
// route mounting by the caller.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening for HTTP connections, blocking until shutdown or
// a fatal error.
func (s *Server) Start() error {
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
