package loginkit

import (
	"time"
)

// inProgressAttempt holds a login that paused waiting for a caller-supplied
// continuation (two-factor token, possibly with a fresh captcha response).
// The strategy keeps the derived key material alive so the continuation can
// finish without re-deriving anything.
type inProgressAttempt struct {
	strategy credentialStrategy
	request  *TokenRequest

	// lastActivity drives the continuation window. It is refreshed on every
	// successful takeAttempt so an active user is never cut off mid-flow.
	lastActivity time.Time

	// emailSent records that the two-factor email side effect already fired
	// for this attempt, so retries do not spam the user.
	emailSent bool

	// captchaBypass is the server-issued bypass token from the two-factor
	// challenge. It is replayed on continuation calls unless the caller
	// supplies a fresh captcha response.
	captchaBypass string
}

// armAttempt stores a paused login, replacing any previous one. The caller
// holds no lock; attempt bookkeeping is guarded by e.mu.
func (e *Engine) armAttempt(a *inProgressAttempt) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempt != nil && e.attempt.strategy != a.strategy {
		e.attempt.strategy.destroy()
	}
	a.lastActivity = e.now()
	e.attempt = a
}

// takeAttempt returns the pending attempt if it is still within the
// continuation window, refreshing its activity timestamp. Expired attempts
// are destroyed and reported as absent; expiry is only ever observed here,
// on the next incoming call.
func (e *Engine) takeAttempt() (*inProgressAttempt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.attempt
	if a == nil {
		return nil, false
	}

	if e.now().Sub(a.lastActivity) > e.config.Session.ContinuationWindow {
		e.attempt = nil
		a.strategy.destroy()
		return nil, false
	}

	a.lastActivity = e.now()
	return a, true
}

// clearAttempt discards any pending attempt and destroys its key material.
func (e *Engine) clearAttempt() {
	e.mu.Lock()
	a := e.attempt
	e.attempt = nil
	e.mu.Unlock()

	if a != nil {
		a.strategy.destroy()
	}
}
