// Package telemetry provides metrics collection for monitoring the
// task-tracker adapter.
package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// Collector provides a thread-safe interface for collecting application
// metrics for monitoring and troubleshooting.
type Collector struct {
	counters map[string]int64
	timers   map[string][]time.Duration
	mu       sync.RWMutex
}

// Metric names for the tool dispatcher and the two upstream clients.
const (
	// Dispatcher metrics
	MetricToolCalls          = "dispatcher.tool_calls"
	MetricToolErrors         = "dispatcher.tool_errors"
	MetricValidationFailures = "dispatcher.validation_failures"

	// Upstream call counts
	MetricLinearCalls       = "linear.api_calls"
	MetricTrackingTimeCalls = "trackingtime.api_calls"

	// Upstream response times
	MetricLinearResponseTime       = "linear.response_time"
	MetricTrackingTimeResponseTime = "trackingtime.response_time"
)

// NewCollector creates a new Collector instance.
func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]int64),
		timers:   make(map[string][]time.Duration),
	}
}

// IncrementCounter increments a named counter by the specified amount.
func (c *Collector) IncrementCounter(name string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[name] += amount
}

// GetCounter returns the current value of a named counter.
func (c *Collector) GetCounter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.counters[name]
}

// RecordTiming records a duration under the named timer.
func (c *Collector) RecordTiming(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timers[name] = append(c.timers[name], d)
}

// AverageTiming returns the mean of the recorded durations for the named
// timer, or zero when nothing has been recorded.
func (c *Collector) AverageTiming(name string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := c.timers[name]
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

// Snapshot returns a human-readable view of all counters and timer averages,
// useful for logging on shutdown.
func (c *Collector) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.counters)+len(c.timers))
	for name, v := range c.counters {
		out[name] = fmt.Sprintf("%d", v)
	}
	for name, samples := range c.timers {
		if len(samples) == 0 {
			continue
		}
		var total time.Duration
		for _, d := range samples {
			total += d
		}
		out[name] = fmt.Sprintf("%v (n=%d)", total/time.Duration(len(samples)), len(samples))
	}
	return out
}

// Reset clears all collected metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = make(map[string]int64)
	c.timers = make(map[string][]time.Duration)
}
