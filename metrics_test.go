package loginkit

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricTwoFactorRequired)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 || snap.Counters[MetricTwoFactorRequired] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap.Counters)
	}
	if snap.Counters[MetricLoginFailure] != 0 {
		t.Fatal("untouched counters must read zero")
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.Inc(MetricLoginSuccess)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("disabled metrics must not count, got %d", got)
	}
	if m.Enabled() {
		t.Fatal("expected disabled")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil receiver must be safe")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLoginFailure); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}
