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

// Package metrics provides Prometheus instrumentation for key material
// and signature operations and for the JWKS HTTP server.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all metrics
	Namespace = "jwtkeys"

	// Label names
	LabelOperation  = "operation"
	LabelAlgorithm  = "algorithm"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpParse      = "parse"
	OpEncode     = "encode"
	OpSign       = "sign"
	OpVerify     = "verify"
	OpThumbprint = "thumbprint"
	OpLoad       = "load"

	// Error types
	ErrorTypeMalformedKey         = "malformed_key"
	ErrorTypeUnsupportedKey       = "unsupported_key"
	ErrorTypeUnsupportedAlgorithm = "unsupported_algorithm"
	ErrorTypeInvalidSignature     = "invalid_signature"
	ErrorTypeSigningFailed        = "signing_failed"
	ErrorTypeVerificationFailed   = "verification_failed"
	ErrorTypeOther                = "other"
)

var (
	// OperationsTotal counts operations by type, algorithm and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of key and signature operations by type, algorithm, and status",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelStatus},
	)

	// OperationDuration tracks operation latency in seconds. RSA private
	// key operations dominate, so buckets start at 100µs.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of key and signature operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelOperation, LabelAlgorithm},
	)

	// ErrorsTotal counts failed operations by error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{LabelMethod, LabelRoute, LabelStatusCode},
	)

	// HTTPRequestDuration tracks HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// HTTPRequestsInFlight is the number of requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of HTTP requests rejected by the rate limiter",
		},
	)

	// KeysPublished is the number of keys in the served JWK Set.
	KeysPublished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "jwks_keys",
			Help:      "Number of keys in the published JWK Set",
		},
	)

	// Goroutines tracks the current number of goroutines.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// ServerUptime tracks the server uptime in seconds since startup.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	sig, err := signer.Sign(payload)
//	metrics.RecordOperation(metrics.OpSign, "RS256", metrics.Status(err), time.Since(start).Seconds())
func RecordOperation(operation, algorithm, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, algorithm, status).Inc()
	OperationDuration.WithLabelValues(operation, algorithm).Observe(duration)
}

// RecordError records a failed operation under an error type.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// Observe records the outcome of an operation that started at start. A
// non-nil err also increments ErrorsTotal under ErrorType(err).
func Observe(operation string, alg types.Algorithm, start time.Time, err error) {
	RecordOperation(operation, alg.String(), Status(err), time.Since(start).Seconds())
	if err != nil {
		RecordError(operation, ErrorType(err))
	}
}

// Status maps err to StatusSuccess or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// ErrorType classifies err by the sentinel it wraps.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, verification.ErrInvalidSignature):
		return ErrorTypeInvalidSignature
	case errors.Is(err, types.ErrUnsupportedAlgorithm):
		return ErrorTypeUnsupportedAlgorithm
	case errors.Is(err, encoding.ErrMalformedKeyFormat):
		return ErrorTypeMalformedKey
	case errors.Is(err, encoding.ErrUnsupportedKeyFormat):
		return ErrorTypeUnsupportedKey
	case errors.Is(err, signing.ErrSigningFailed):
		return ErrorTypeSigningFailed
	case errors.Is(err, verification.ErrVerificationFailed):
		return ErrorTypeVerificationFailed
	default:
		return ErrorTypeOther
	}
}

// RecordHTTPRequest records an HTTP request with its duration and status.
func RecordHTTPRequest(method, route, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	if !enabled.Load() {
		return
	}
	RateLimitedTotal.Inc()
}

// SetKeysPublished sets the size of the served JWK Set.
func SetKeysPublished(count int) {
	if !enabled.Load() {
		return
	}
	KeysPublished.Set(float64(count))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
