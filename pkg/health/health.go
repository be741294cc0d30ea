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

// Package health provides liveness and readiness probes for the JWKS server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// CheckFunc performs a single readiness check.
type CheckFunc func(ctx context.Context) CheckResult

// Report is the body written by Handler.
type Report struct {
	Status Status        `json:"status"`
	Uptime string        `json:"uptime"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// Checker holds named readiness checks and the process start time.
type Checker struct {
	mu        sync.RWMutex
	started   bool
	startTime time.Time
	checks    map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker() *Checker {
	return &Checker{
		checks:    make(map[string]CheckFunc),
		startTime: time.Now(),
	}
}

// RegisterCheck adds or replaces the check called name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// MarkStarted marks initialization as complete.
func (c *Checker) MarkStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
}

// MarkNotStarted is used during shutdown so readiness fails while
// in-flight requests drain.
func (c *Checker) MarkNotStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
}

// IsStarted returns true if the service has been marked as started.
func (c *Checker) IsStarted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Uptime returns how long the checker has existed.
func (c *Checker) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Ready runs every registered check and returns the results sorted by
// name. A checker that has not been started reports a single unhealthy
// "startup" result.
func (c *Checker) Ready(ctx context.Context) []CheckResult {
	c.mu.RLock()
	started := c.started
	names := make([]string, 0, len(c.checks))
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		names = append(names, name)
		checks[name] = check
	}
	c.mu.RUnlock()

	if !started {
		return []CheckResult{{
			Name:    "startup",
			Status:  StatusUnhealthy,
			Message: "initialization not complete",
		}}
	}

	sort.Strings(names)
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		start := time.Now()
		result := checks[name](ctx)
		result.Latency = time.Since(start)
		if result.Name == "" {
			result.Name = name
		}
		results = append(results, result)
	}
	return results
}

// AggregateStatus returns unhealthy if any result is unhealthy, degraded
// if any is degraded, and healthy otherwise.
func AggregateStatus(results []CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// LiveHandler answers 200 while the process is running.
func (c *Checker) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeReport(w, http.StatusOK, Report{
			Status: StatusHealthy,
			Uptime: c.Uptime().Round(time.Second).String(),
		})
	})
}

// Handler runs the readiness checks and answers 200 for healthy or
// degraded and 503 for unhealthy.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := c.Ready(r.Context())
		report := Report{
			Status: AggregateStatus(results),
			Uptime: c.Uptime().Round(time.Second).String(),
			Checks: results,
		}
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeReport(w, code, report)
	})
}

func writeReport(w http.ResponseWriter, code int, report Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
