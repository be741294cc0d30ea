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

// Package ratelimit implements per-client token bucket rate limiting for
// HTTP handlers.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements a token bucket rate limiter with per-client tracking.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	enabled  bool

	trustProxyHeaders bool

	cleanupInterval time.Duration
	maxIdle         time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// Config holds rate limiter configuration.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool

	// RequestsPerMinute sets the sustained rate limit.
	RequestsPerMinute int

	// Burst allows short bursts above the sustained rate.
	// If not set, defaults to RequestsPerMinute.
	Burst int

	// TrustProxyHeaders identifies clients by X-Forwarded-For or X-Real-IP
	// instead of the connection address.
	TrustProxyHeaders bool

	// CleanupInterval controls how often to remove idle clients.
	// Defaults to 10 minutes.
	CleanupInterval time.Duration

	// MaxIdle is how long a client can be idle before cleanup.
	// Defaults to 30 minutes.
	MaxIdle time.Duration
}

// New creates a new rate limiter with the given configuration.
func New(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: false}
	}

	burst := config.Burst
	if burst == 0 {
		burst = config.RequestsPerMinute
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	maxIdle := config.MaxIdle
	if maxIdle == 0 {
		maxIdle = 30 * time.Minute
	}

	l := &Limiter{
		limiters:          make(map[string]*rate.Limiter),
		lastSeen:          make(map[string]time.Time),
		rate:              rate.Limit(float64(config.RequestsPerMinute) / 60.0),
		burst:             burst,
		enabled:           config.Enabled,
		trustProxyHeaders: config.TrustProxyHeaders,
		cleanupInterval:   cleanupInterval,
		maxIdle:           maxIdle,
		stopCleanup:       make(chan struct{}),
	}

	if config.Enabled {
		go l.cleanupWorker()
	}

	return l
}

func (l *Limiter) getLimiter(clientID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[clientID]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[clientID] = limiter
	}

	l.lastSeen[clientID] = time.Now()
	return limiter
}

// Allow reports whether a request from clientID is within its limit.
func (l *Limiter) Allow(clientID string) bool {
	if !l.enabled {
		return true
	}
	return l.getLimiter(clientID).Allow()
}

// Wait blocks until clientID may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, clientID string) error {
	if !l.enabled {
		return nil
	}
	return l.getLimiter(clientID).Wait(ctx)
}

func (l *Limiter) cleanupWorker() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup removes clients that haven't made requests recently.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for clientID, lastSeen := range l.lastSeen {
		if now.Sub(lastSeen) > l.maxIdle {
			delete(l.limiters, clientID)
			delete(l.lastSeen, clientID)
		}
	}
}

// Stop stops the cleanup worker. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// ActiveClients returns the number of tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// IsEnabled returns whether rate limiting is enabled.
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// Middleware returns an HTTP middleware that answers 429 once a client
// exceeds its limit. onLimited, if non-nil, is called for each rejection.
func Middleware(limiter *Limiter, onLimited func(r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(limiter.clientID(r)) {
				if onLimited != nil {
					onLimited(r)
				}
				w.Header().Set("Retry-After", strconv.Itoa(limiter.retryAfterSeconds()))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func (l *Limiter) retryAfterSeconds() int {
	if l.rate <= 0 {
		return 60
	}
	seconds := int(1/float64(l.rate) + 0.999)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// clientID extracts the client address from r.
func (l *Limiter) clientID(r *http.Request) string {
	if l.trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
