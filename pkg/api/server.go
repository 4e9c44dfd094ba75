// Package api serves schema-driven records over HTTP. Requests carry JSON
// values, records are encoded with the named schema and kept in a record
// store.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 5 * time.Second

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	m := s.metrics
	r := chi.NewRouter()

	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Crunchy-Schema"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, m))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Schemas
		r.Get("/schemas", m.InstrumentHandler("GET", "/api/v1/schemas", s.handleListSchemas))
		r.Get("/schemas/{name}", m.InstrumentHandler("GET", "/api/v1/schemas/{name}", s.handleGetSchema))
		r.Post("/schemas/{name}/records", m.InstrumentHandler("POST", "/api/v1/schemas/{name}/records", s.handleCreateRecord))

		// Records
		r.Get("/records", m.InstrumentHandler("GET", "/api/v1/records", s.handleListRecords))
		r.Get("/records/{id}", m.InstrumentHandler("GET", "/api/v1/records/{id}", s.handleGetRecord))
		r.Get("/records/{id}/raw", m.InstrumentHandler("GET", "/api/v1/records/{id}/raw", s.handleGetRawRecord))
		r.Delete("/records/{id}", m.InstrumentHandler("DELETE", "/api/v1/records/{id}", s.handleDeleteRecord))

		r.Get("/stats", m.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// Start serves the API until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.startMetricsUpdater(ctx)

	if s.config.APIKey == "" {
		s.logger.Warn().Msg("api key not set, authentication disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting crunchy API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down API server")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return srv.Shutdown(shutdownCtx)
}
