// Package server exposes the ComputoVoce estimate pipeline over HTTP.
//
// API routes are wrapped in the observability middleware (OTel span, request
// duration histogram, correlation ID header); health probes and the
// Prometheus scrape endpoint are served unwrapped.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stimaworks/computovoce/internal/analysis"
	"github.com/stimaworks/computovoce/internal/config"
	"github.com/stimaworks/computovoce/internal/health"
	"github.com/stimaworks/computovoce/internal/observe"
	"github.com/stimaworks/computovoce/pkg/provider/stt"
)

// defaultMaxUploadBytes caps multipart uploads when the config leaves
// server.max_upload_bytes unset. Regional price lists run to a few megabytes;
// 32 MiB leaves generous headroom without inviting abuse.
const defaultMaxUploadBytes = 32 << 20

// shutdownTimeout bounds how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownTimeout = 15 * time.Second

// Server is the ComputoVoce HTTP server. Construct with [New], start with
// [Server.Run].
type Server struct {
	cfg      config.ServerConfig
	analysis *analysis.Service
	expander *analysis.Expander
	stt      stt.Provider
	sttName  string
	metrics  *observe.Metrics
	health   *health.Handler
}

// Option is a functional option for [New].
type Option func(*Server)

// WithSTT enables the /api/transcribe endpoint. name labels the provider in
// metrics.
func WithSTT(p stt.Provider, name string) Option {
	return func(s *Server) {
		s.stt = p
		s.sttName = name
	}
}

// WithExpander enables the standalone /api/expand-keywords endpoint.
func WithExpander(e *analysis.Expander) Option {
	return func(s *Server) { s.expander = e }
}

// WithHealthCheckers registers readiness checks for /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) { s.health = health.New(checkers...) }
}

// New creates a [Server] around the analysis service. metrics defaults to
// [observe.DefaultMetrics] when nil.
func New(cfg config.ServerConfig, svc *analysis.Service, metrics *observe.Metrics, opts ...Option) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{
		cfg:      cfg,
		analysis: svc,
		metrics:  metrics,
		health:   health.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/pricelist", s.handlePricelist)
	api.HandleFunc("POST /api/analyze", s.handleAnalyze)
	api.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	api.HandleFunc("POST /api/expand-keywords", s.handleExpandKeywords)

	mux := http.NewServeMux()
	mux.Handle("/api/", observe.Middleware(s.metrics)(api))
	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)
	return mux
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.TLS != nil {
			slog.Info("server listening", "addr", addr, "tls", true)
			err = srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			slog.Info("server listening", "addr", addr, "tls", false)
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// maxUploadBytes resolves the configured upload cap.
func (s *Server) maxUploadBytes() int64 {
	if s.cfg.MaxUploadBytes > 0 {
		return s.cfg.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
