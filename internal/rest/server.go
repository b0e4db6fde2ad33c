// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pdfsign.
//
// go-pdfsign is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-pdfsign/pkg/health"
	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/metrics"
	"github.com/jeremyhahn/go-pdfsign/pkg/ratelimit"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes caps uploaded documents.
const DefaultMaxBodyBytes int64 = 32 << 20

// DocumentVerifier verifies an uploaded document. *service.Service
// satisfies it.
type DocumentVerifier interface {
	VerifyDocumentBytes(ctx context.Context, pub crypto.PublicKey, data []byte) *verification.Result
}

// Server represents the verification server.
type Server struct {
	server       *http.Server
	verifier     DocumentVerifier
	keysDir      string
	maxBodyBytes int64
	tlsConfig    *tls.Config
	limiter      *ratelimit.Limiter
	health       *health.Checker
	metricsPath  string
	logger       *logging.Logger
}

// Config holds the server configuration.
type Config struct {
	// Addr is host:port to listen on (default: 127.0.0.1:8443)
	Addr string

	// Verifier checks uploaded documents (required)
	Verifier DocumentVerifier

	// KeysDir holds the public keys documents are verified against
	// (required)
	KeysDir string

	// MaxBodyBytes caps the request body (default: 32 MiB)
	MaxBodyBytes int64

	// TLSConfig enables HTTPS when set
	TLSConfig *tls.Config

	// RateLimiter limits requests per client IP (optional)
	RateLimiter *ratelimit.Limiter

	// HealthChecker backs /health/ready. A checker with a keys directory
	// check is created when nil.
	HealthChecker *health.Checker

	// MetricsPath exposes Prometheus metrics when non-empty
	MetricsPath string

	// Logger (optional, discards when nil)
	Logger *logging.Logger

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new verification server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if cfg.KeysDir == "" {
		return nil, fmt.Errorf("keys directory is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8443"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	checker := cfg.HealthChecker
	if checker == nil {
		checker = health.NewChecker()
		checker.RegisterCheck("keys_dir", health.DirCheck("keys_dir", cfg.KeysDir, true))
	}
	if cfg.RateLimiter != nil && cfg.RateLimiter.IsEnabled() {
		checker.RegisterCheck("rate_limiter", rateLimiterCheck(cfg.RateLimiter))
	}

	s := &Server{
		verifier:     cfg.Verifier,
		keysDir:      cfg.KeysDir,
		maxBodyBytes: cfg.MaxBodyBytes,
		tlsConfig:    cfg.TLSConfig,
		limiter:      cfg.RateLimiter,
		health:       checker,
		metricsPath:  cfg.MetricsPath,
		logger:       log,
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.setupRouter(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		TLSConfig:         cfg.TLSConfig,
	}
	return s, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", s.HealthHandler)
	r.Head("/health", s.HealthHandler)
	r.Get("/health/ready", s.ReadinessHandler)
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		r.Get("/keys", s.ListKeysHandler)
		r.Post("/verify", s.VerifyHandler)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop. It returns nil after a graceful stop.
func (s *Server) Serve(ln net.Listener) error {
	s.health.MarkStarted()
	if s.tlsConfig != nil {
		s.logger.Info("starting HTTPS server", "addr", ln.Addr().String())
		err := s.server.ServeTLS(ln, "", "")
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTPS server: %w", err)
		}
		return nil
	}

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
	err := s.server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error(err)
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
