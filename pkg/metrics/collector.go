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

package metrics

import (
	"context"
	"runtime"
	"time"
)

// ResourceCollector periodically updates the goroutine, memory and uptime
// gauges.
type ResourceCollector struct {
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	started  time.Time
}

// NewResourceCollector creates a collector that updates gauges every
// interval until ctx is cancelled or Stop is called.
func NewResourceCollector(ctx context.Context, interval time.Duration) *ResourceCollector {
	collectorCtx, cancel := context.WithCancel(ctx)
	return &ResourceCollector{
		ctx:      collectorCtx,
		cancel:   cancel,
		interval: interval,
		started:  time.Now(),
	}
}

// Start collects immediately and then on every tick. It blocks.
func (rc *ResourceCollector) Start() {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.collect()

	for {
		select {
		case <-rc.ctx.Done():
			return
		case <-ticker.C:
			rc.collect()
		}
	}
}

// Stop halts the collector.
func (rc *ResourceCollector) Stop() {
	rc.cancel()
}

func (rc *ResourceCollector) collect() {
	if !IsEnabled() {
		return
	}

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	MemoryAllocBytes.Set(float64(memStats.Alloc))

	ServerUptime.Set(time.Since(rc.started).Seconds())
}

// StartResourceCollector creates a collector and runs it in a goroutine.
func StartResourceCollector(ctx context.Context, interval time.Duration) *ResourceCollector {
	collector := NewResourceCollector(ctx, interval)
	go collector.Start()
	return collector
}
