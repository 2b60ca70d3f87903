package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the HTTP handler for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/api/documents/extract", s.corsMiddleware(s.extractHandler))
	mux.HandleFunc("POST /api/batches/{id}/run", s.corsMiddleware(s.batchRunHandler))
	mux.HandleFunc("POST /api/batches/{id}/validate", s.corsMiddleware(s.batchValidateHandler))
	mux.HandleFunc("/api/sheets/generate", s.corsMiddleware(s.generateHandler))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully within the given timeout.
func (s *Server) Start(ctx context.Context, host string, port int, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// contextWithTimeout derives the handler context, bounding slow extractions
// so a stuck document cannot pin a connection forever.
func contextWithTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}
