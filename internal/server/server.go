// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwtkeys.
//
// go-jwtkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package server publishes the configured RSA keys as a JWK Set over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-jwtkeys/internal/config"
	"github.com/jeremyhahn/go-jwtkeys/pkg/correlation"
	"github.com/jeremyhahn/go-jwtkeys/pkg/health"
	"github.com/jeremyhahn/go-jwtkeys/pkg/logging"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/ratelimit"
)

const resourceInterval = 15 * time.Second

// Server is the JWKS HTTP server.
type Server struct {
	mu      sync.RWMutex
	config  *config.Config
	logger  *logging.Logger
	keys    *KeyRing
	health  *health.Checker
	limiter *ratelimit.Limiter
	router  chi.Router
}

// New creates a server for cfg and performs the initial key load.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	s := &Server{
		config: cfg,
		logger: logger,
		keys:   NewKeyRing(cfg.Keys, cfg.Vault),
		health: health.NewChecker(),
		limiter: ratelimit.New(&ratelimit.Config{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			Burst:             cfg.RateLimit.Burst,
			TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		}),
	}

	if err := s.keys.Load(ctx); err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.health.RegisterCheck("keys", s.keys.Check)
	s.router = s.setupRouter()

	logger.Info("Key set loaded", "keys", s.keys.Len())
	return s, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(correlation.Middleware)
	r.Use(s.loggingMiddleware)
	r.Use(metrics.HTTPMiddleware)

	r.Get(s.config.Server.HealthPath, s.health.Handler().ServeHTTP)
	r.Get(s.config.Server.HealthPath+"/live", s.health.LiveHandler().ServeHTTP)
	if s.config.Metrics.Enabled {
		r.Handle(s.config.Metrics.Path, metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(s.limiter, s.rateLimited))
		r.Use(corsMiddleware)
		r.Get(s.config.Server.JWKSPath, s.jwksHandler)
		r.Head(s.config.Server.JWKSPath, s.jwksHandler)
		r.Options(s.config.Server.JWKSPath, s.jwksHandler)
		r.Get("/keys/{kid}", s.keyHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, ErrNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Keys returns the key ring.
func (s *Server) Keys() *KeyRing {
	return s.keys
}

func (s *Server) log() *logging.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Address)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Server.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	tlsConfig, err := s.config.Server.TLS.LoadTLSConfig()
	if err != nil {
		ln.Close()
		return err
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	httpServer := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         tlsConfig,
	}

	if s.config.Metrics.Enabled {
		collector := metrics.StartResourceCollector(ctx, resourceInterval)
		defer collector.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	s.health.MarkStarted()
	s.log().Info("JWKS server listening",
		"address", ln.Addr().String(),
		"tls", tlsConfig != nil,
		"jwks_path", s.config.Server.JWKSPath)

	select {
	case err := <-errCh:
		s.health.MarkNotStarted()
		s.limiter.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	s.health.MarkNotStarted()
	s.log().Info("Shutting down JWKS server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	defer s.limiter.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log().Warn("Shutdown timeout exceeded, forcing stop", "error", err)
		_ = httpServer.Close()
		return fmt.Errorf("server: shutdown: %w", err)
	}

	s.log().Info("JWKS server stopped")
	return nil
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ReloadOnSignal reloads the key ring on each SIGHUP until ctx is done.
func (s *Server) ReloadOnSignal(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := s.Reload(ctx); err != nil {
				s.log().Error(err)
			}
		}
	}
}
