package loginkit

import (
	"time"

	"github.com/veilock/loginkit/keys"
)

// SessionState is the authenticated state retained for an account after a
// completed login. The user key is held in memory only and is destroyed on
// logout or lock.
type SessionState struct {
	AccountID string
	Email     string
	Tokens    SessionTokens

	// LocalAuthHash is the local-authorization password hash, retained so
	// embedders can verify the master password offline (unlock, exports)
	// without a server round trip.
	LocalAuthHash string

	ForcePasswordReset bool
	ForceResetReason   ForceResetReason
	ForcingOrgID       string
	FailingPolicies    []Policy

	CreatedAt time.Time

	userKey *keys.UserKey
}

// HasUserKey reports whether the decrypted user key is present. Sessions
// created by SSO or API-key logins without a key decrypter start locked.
func (s *SessionState) HasUserKey() bool {
	return s != nil && s.userKey != nil
}

// UserKey returns the decrypted user key, or nil for a locked session.
// Callers must not retain the key past the session's lifetime.
func (s *SessionState) UserKey() *keys.UserKey {
	if s == nil {
		return nil
	}
	return s.userKey
}

// AuthStatus reports the authentication status for an account. An empty
// accountID means the most recently authenticated account.
func (e *Engine) AuthStatus(accountID string) AuthenticationStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if accountID == "" {
		accountID = e.activeAccountID
	}
	s, ok := e.sessions[accountID]
	if !ok {
		return StatusLoggedOut
	}
	if s.userKey == nil {
		return StatusLocked
	}
	return StatusUnlocked
}

// Session returns the session state for an account, or nil when the account
// is logged out. An empty accountID means the most recently authenticated
// account.
func (e *Engine) Session(accountID string) *SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if accountID == "" {
		accountID = e.activeAccountID
	}
	return e.sessions[accountID]
}

// Logout removes the account's session and destroys its key material.
func (e *Engine) Logout(accountID string) {
	e.mu.Lock()
	if accountID == "" {
		accountID = e.activeAccountID
	}
	s, ok := e.sessions[accountID]
	if ok {
		delete(e.sessions, accountID)
	}
	if e.activeAccountID == accountID {
		e.activeAccountID = ""
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	if s.userKey != nil {
		s.userKey.Destroy()
	}
	e.emitAudit(nil, auditEventLogout, true, accountID, s.Email, nil, nil)
}

// Lock destroys the account's user key while keeping the session, moving it
// to [StatusLocked]. Tokens are retained so the embedder can unlock without
// a fresh login.
func (e *Engine) Lock(accountID string) {
	e.mu.Lock()
	if accountID == "" {
		accountID = e.activeAccountID
	}
	s, ok := e.sessions[accountID]
	var key *keys.UserKey
	if ok {
		key = s.userKey
		s.userKey = nil
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	if key != nil {
		key.Destroy()
	}
	e.emitAudit(nil, auditEventLock, true, accountID, s.Email, nil, nil)
}

func (e *Engine) storeSession(s *SessionState) {
	e.mu.Lock()
	old := e.sessions[s.AccountID]
	e.sessions[s.AccountID] = s
	e.activeAccountID = s.AccountID
	e.mu.Unlock()

	if old != nil && old.userKey != nil && old.userKey != s.userKey {
		old.userKey.Destroy()
	}
}
