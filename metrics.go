package authcore

import "sync/atomic"

// MetricID identifies one flow counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that issued a token pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected login attempts, whatever the cause.
	MetricLoginFailure
	// MetricRefreshSuccess counts successful access-token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh attempts rejected by parse or registry mismatch.
	MetricRefreshFailure
	// MetricLogout counts revocations.
	MetricLogout
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess
	// MetricRegisterRolledBack counts registrations undone after a failed verification email.
	MetricRegisterRolledBack
	// MetricOTPVerified counts accepted verification codes.
	MetricOTPVerified
	// MetricOTPRejected counts missing, expired or mismatched verification codes.
	MetricOTPRejected
	// MetricOTPResent counts re-issued verification codes.
	MetricOTPResent
	// MetricPasswordChanged counts OTP-gated password changes.
	MetricPasswordChanged
	// MetricFirstLoginChanged counts completed first-login password changes.
	MetricFirstLoginChanged
	// MetricResetRequested counts forgot-password emails sent.
	MetricResetRequested
	// MetricResetCompleted counts completed password resets.
	MetricResetCompleted
	// MetricProvisioned counts administrator-created accounts.
	MetricProvisioned
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds in-process flow counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a Metrics honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters record anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
