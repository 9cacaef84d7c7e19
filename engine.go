package loginkit

import (
	"sync"
	"time"

	"github.com/veilock/loginkit/internal/rate"
)

// Engine drives the multi-step login protocol: it owns the in-progress
// attempt, dispatches to the credential strategy for the supplied
// credential, runs the captcha/two-factor continuation protocol, and
// applies master password policy results to decide forced resets.
//
// One Engine instance supports exactly one in-flight or pending attempt.
// A new [Engine.Login] call discards any stale attempt; callers must
// serialize restart intent themselves.
type Engine struct {
	config       Config
	identity     IdentityClient
	keyDecrypter UserKeyDecrypter
	rateLimiter  *rate.Limiter
	prelogin     *preloginResolver
	audit        *auditDispatcher
	metrics      *Metrics

	mu              sync.Mutex
	attempt         *inProgressAttempt
	sessions        map[string]*SessionState
	activeAccountID string

	// now is the attempt-expiry clock; replaced in tests.
	now func() time.Time
}

// Close stops the audit dispatcher, draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
