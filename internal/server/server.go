// Package server hosts the operational HTTP endpoint: Prometheus metrics
// and a health probe, behind conservative timeouts and security headers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/uaremad/imgcache/logging"
)

// Timeouts for the operational endpoint.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server serves the /metrics and /healthz endpoints.
type Server struct {
	srv *http.Server
}

// New builds a Server on addr exposing metricsHandler at /metrics.
func New(addr string, metricsHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", securityHeaders(metricsHandler))
	mux.Handle("/healthz", securityHeaders(http.HandlerFunc(handleHealth)))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Start begins serving in the background. A bind or serve failure is
// logged, not fatal: the endpoint is operational tooling, losing it must
// never take the application down.
func (s *Server) Start() {
	logging.Trace(func() string {
		return fmt.Sprintf("serving metrics on %s", s.srv.Addr)
	})
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn(func() string {
				return fmt.Sprintf("metrics endpoint on %s failed: %v", s.srv.Addr, err)
			})
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleHealth answers liveness probes.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// securityHeaders sets defensive response headers on every endpoint.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
