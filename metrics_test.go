package authcore

import (
	"context"
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshFailure)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("Value(MetricLoginSuccess) = %d", got)
	}
	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 || snap.Counters[MetricRefreshFailure] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap.Counters)
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("untouched counter must be zero, got %d", snap.Counters[MetricLogout])
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if m.Enabled() {
		t.Fatal("expected disabled metrics")
	}
	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	if m.Enabled() || m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics must be inert")
	}
	if m.Snapshot().Counters == nil {
		t.Fatal("nil snapshot must still return a map")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricOTPVerified)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricOTPVerified); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestEngineCountsFlows(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store, &mockMailer{}, nil)
	seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	if _, err := engine.Login(context.Background(), "alice@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginFailure] != 1 || snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected login counters: %+v", snap.Counters)
	}
}
