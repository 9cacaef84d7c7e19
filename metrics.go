package loginkit

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts fully authenticated attempts.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed attempts.
	MetricLoginFailure
	// MetricLoginRateLimited counts attempts refused by the throttle.
	MetricLoginRateLimited
	// MetricCaptchaRequired counts attempts stopped at a captcha challenge.
	MetricCaptchaRequired
	// MetricTwoFactorRequired counts attempts stopped at a two-factor
	// challenge.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts accepted two-factor continuations.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected two-factor continuations.
	MetricTwoFactorFailure
	// MetricTwoFactorEmailSent counts automatic email-code sends.
	MetricTwoFactorEmailSent
	// MetricSessionExpired counts continuations that arrived after the
	// attempt window closed.
	MetricSessionExpired
	// MetricForcedReset counts logins flagged for a forced password change.
	MetricForcedReset
	// MetricPreloginCacheHit counts KDF configs served from the cache.
	MetricPreloginCacheHit
	// MetricPreloginCacheMiss counts KDF configs fetched from the server.
	MetricPreloginCacheMiss
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds per-engine atomic counters. All operations are no-ops when
// the instance is disabled or nil.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether the instance records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies all counters.
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
