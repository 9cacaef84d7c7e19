// Package loginkit provides an embeddable login engine for end-to-end
// encrypted accounts: master key derivation, password policy enforcement,
// four credential strategies (password, SSO, API key, device approval), and
// a challenge-driven orchestrator for captcha and two-factor continuations.
//
// The package is designed for client-side workloads: one Engine per user
// surface, built through [Builder.Build]. Engine methods are safe to call
// from multiple goroutines after initialization.
//
// # Architecture boundaries
//
// loginkit is the public surface. It exposes [Engine], [Builder], [Config],
// the credential variants, and the wire value types ([TokenRequest],
// [TokenResponse], [AuthResult]). Key material lives in the keys
// sub-package; rate limiting lives under internal/ and is never exported.
// Network transport is supplied by the embedder through [IdentityClient];
// the engine never opens connections itself.
//
// # What this package must NOT do
//
//   - Transmit the plaintext master password or the master key anywhere.
//     Only the server authorization hash crosses [IdentityClient].
//   - Persist key material. User keys are memory-resident for the session
//     lifetime and destroyed on logout or lock; Redis holds only throttle
//     counters and KDF parameters.
//   - Validate server token signatures. Identity tokens are decoded for
//     their claims; trust in them comes from the TLS channel the embedder
//     provides.
package loginkit
