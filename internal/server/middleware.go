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

package server

import (
	"net/http"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/pkg/correlation"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/validation"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// loggingMiddleware logs each request with its correlation ID.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)
		logger := s.log().With("request_id", correlation.ID(r.Context()))

		logger.Debug("Request started",
			"method", r.Method,
			"path", validation.SanitizeForLog(r.URL.Path),
			"remote", r.RemoteAddr)

		next.ServeHTTP(wrapped, r)

		logger.Info("Request completed",
			"method", r.Method,
			"path", validation.SanitizeForLog(r.URL.Path),
			"status", wrapped.statusCode,
			"duration", time.Since(start).String())
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log().Slog().Error("Panic recovered",
					"method", r.Method,
					"path", validation.SanitizeForLog(r.URL.Path),
					"request_id", correlation.ID(r.Context()),
					"error", rec)
				writeError(w, ErrInternal, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(r *http.Request) {
	metrics.RecordRateLimited()
	s.log().Warn("Rate limit exceeded",
		"path", validation.SanitizeForLog(r.URL.Path),
		"remote", r.RemoteAddr,
		"request_id", correlation.ID(r.Context()))
}

// corsMiddleware allows any origin to read the public key set.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
