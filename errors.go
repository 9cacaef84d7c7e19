package loginkit

import (
	"errors"

	"github.com/veilock/loginkit/keys"
)

var (
	// ErrInvalidCredentialFormat reports a credential that is malformed on
	// its face (for example a client id without the personal API key
	// prefix). Fails fast; no network call is made.
	ErrInvalidCredentialFormat = errors.New("invalid credential format")
	// ErrAuthenticationRejected means the identity endpoint refused the
	// credential. The message must not reveal whether the email exists.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrNetworkFailure wraps a transport error from the identity client.
	// Retryable by the caller.
	ErrNetworkFailure = errors.New("network failure")
	// ErrSessionExpired reports a continuation call (two-factor or captcha
	// retry) that arrived after the attempt window closed or with no
	// attempt retained. The caller must restart from Login.
	ErrSessionExpired = errors.New("authentication session expired")
	// ErrDecryption reports a user key that failed to unwrap. Treated
	// identically to ErrAuthenticationRejected for user-facing messaging;
	// distinguishing them would be an oracle for attackers.
	ErrDecryption = keys.ErrDecryption
	// ErrLoginRateLimited reports too many recent attempts for the
	// identifier or source address.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady reports use of an Engine that was not built
	// through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrPreloginUnavailable reports a prelogin lookup that failed for a
	// reason other than an unknown account.
	ErrPreloginUnavailable = errors.New("prelogin lookup unavailable")
)
