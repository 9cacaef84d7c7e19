// Package keys implements the key derivation engine for the login flow:
// master key derivation from (password, email, KDF config), purpose-tagged
// password hashing, and wrapping/unwrapping of the account user key.
//
// Everything in this package is a pure function of its inputs. No I/O, no
// caching, no global state. Key material lives only in process memory and
// callers are expected to Zero it once an attempt ends.
package keys
