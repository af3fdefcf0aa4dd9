package telemetry

import (
	"sync"
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	c := NewCollector()

	c.IncrementCounter(MetricToolCalls, 1)
	c.IncrementCounter(MetricToolCalls, 2)

	if got := c.GetCounter(MetricToolCalls); got != 3 {
		t.Errorf("Expected counter 3, got %d", got)
	}
	if got := c.GetCounter("never.seen"); got != 0 {
		t.Errorf("Expected zero for unknown counter, got %d", got)
	}
}

func TestTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(MetricLinearResponseTime, 100*time.Millisecond)
	c.RecordTiming(MetricLinearResponseTime, 300*time.Millisecond)

	if got := c.AverageTiming(MetricLinearResponseTime); got != 200*time.Millisecond {
		t.Errorf("Expected average 200ms, got %v", got)
	}
	if got := c.AverageTiming("never.seen"); got != 0 {
		t.Errorf("Expected zero average for unknown timer, got %v", got)
	}
}

func TestSnapshotAndReset(t *testing.T) {
	c := NewCollector()
	c.IncrementCounter(MetricToolErrors, 1)
	c.RecordTiming(MetricTrackingTimeResponseTime, 50*time.Millisecond)

	snapshot := c.Snapshot()
	if _, ok := snapshot[MetricToolErrors]; !ok {
		t.Errorf("Expected counter in snapshot, got %v", snapshot)
	}
	if _, ok := snapshot[MetricTrackingTimeResponseTime]; !ok {
		t.Errorf("Expected timer in snapshot, got %v", snapshot)
	}

	c.Reset()
	if got := c.GetCounter(MetricToolErrors); got != 0 {
		t.Errorf("Expected counter reset to 0, got %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncrementCounter(MetricToolCalls, 1)
				c.RecordTiming(MetricLinearResponseTime, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := c.GetCounter(MetricToolCalls); got != 1000 {
		t.Errorf("Expected 1000 increments, got %d", got)
	}
}
