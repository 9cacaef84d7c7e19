// Package rate provides the Redis-backed login attempt throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - al:  login per-email
//   - ali: login per-IP
//
// # What this package must NOT do
//
//   - Decide when throttling applies (the Engine does).
//   - Be imported outside the loginkit module.
package rate
