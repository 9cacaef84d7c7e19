package keys

import (
	"crypto/sha256"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KdfType selects the algorithm used to derive the master key. The numeric
// values are part of the prelogin wire contract and must not be reordered.
type KdfType uint8

const (
	// KdfPBKDF2SHA256 derives the master key with PBKDF2-HMAC-SHA256.
	KdfPBKDF2SHA256 KdfType = 0
	// KdfArgon2id derives the master key with Argon2id.
	KdfArgon2id KdfType = 1
)

const (
	// MinPBKDF2Iterations is the lowest iteration count accepted for
	// PBKDF2 configs. Servers predating the iteration bump may still
	// announce counts this low for old accounts.
	MinPBKDF2Iterations = 5000

	// DefaultPBKDF2Iterations is used when the prelogin lookup reports no
	// config for the account (unknown email).
	DefaultPBKDF2Iterations = 600_000

	// MinArgon2MemoryMiB and MinArgon2Parallelism bound Argon2id configs.
	MinArgon2MemoryMiB    = 16
	MinArgon2Parallelism  = 1
	DefaultArgon2Memory   = 64
	DefaultArgon2Parallel = 4
	DefaultArgon2Iter     = 3

	masterKeyLength = 32
)

var (
	// ErrInvalidKdfConfig reports a config that fails Validate.
	ErrInvalidKdfConfig = errors.New("invalid kdf config")
)

// KdfConfig carries the per-account KDF parameters obtained from the
// unauthenticated prelogin lookup. Immutable once fetched for an account.
type KdfConfig struct {
	Type        KdfType
	Iterations  int
	MemoryMiB   int
	Parallelism int
}

// DefaultKdfConfig is applied when the server does not know the email.
// Deriving with it still runs the full work factor so an unknown account
// is indistinguishable, by timing, from a wrong password.
func DefaultKdfConfig() KdfConfig {
	return KdfConfig{
		Type:       KdfPBKDF2SHA256,
		Iterations: DefaultPBKDF2Iterations,
	}
}

// Validate enforces the per-algorithm parameter invariants: PBKDF2 needs an
// iteration count at or above the safe floor, Argon2id needs positive memory
// and parallelism.
func (c KdfConfig) Validate() error {
	switch c.Type {
	case KdfPBKDF2SHA256:
		if c.Iterations < MinPBKDF2Iterations {
			return ErrInvalidKdfConfig
		}
	case KdfArgon2id:
		if c.Iterations < 1 {
			return ErrInvalidKdfConfig
		}
		if c.MemoryMiB < MinArgon2MemoryMiB {
			return ErrInvalidKdfConfig
		}
		if c.Parallelism < MinArgon2Parallelism {
			return ErrInvalidKdfConfig
		}
	default:
		return ErrInvalidKdfConfig
	}
	return nil
}

// NormalizeEmail lowercases and trims the email before it is used as KDF
// salt input. This normalization is load-bearing: deriving with a
// differently-cased email produces a different master key, which is
// indistinguishable from a wrong password.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveMasterKey derives the 256-bit master key from the password and the
// normalized email under the given config. The password is treated as raw
// bytes; the caller retains ownership and should Zero it when done.
func DeriveMasterKey(password []byte, email string, cfg KdfConfig) (*MasterKey, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	salt := []byte(NormalizeEmail(email))

	var key []byte
	switch cfg.Type {
	case KdfPBKDF2SHA256:
		key = pbkdf2.Key(password, salt, cfg.Iterations, masterKeyLength, sha256.New)
	case KdfArgon2id:
		// Argon2 requires a fixed-size salt; the normalized email is
		// pre-hashed so arbitrarily short addresses remain valid input.
		hashedSalt := sha256.Sum256(salt)
		key = argon2.IDKey(
			password,
			hashedSalt[:],
			uint32(cfg.Iterations),
			uint32(cfg.MemoryMiB)*1024,
			uint8(cfg.Parallelism),
			masterKeyLength,
		)
	}

	return &MasterKey{key: key}, nil
}
