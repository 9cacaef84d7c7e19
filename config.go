package loginkit

import (
	"errors"
	"time"
)

// Config defines the engine's tunables. Instances are configured during
// initialization and treated as immutable after [Builder.Build].
type Config struct {
	Session   SessionConfig
	Device    DeviceConfig
	RateLimit RateLimitConfig
	Prelogin  PreloginConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the in-progress attempt bookkeeping.
type SessionConfig struct {
	// ContinuationWindow is how long a captcha or two-factor continuation
	// may stay pending without activity before the attempt is discarded
	// and the user must restart. Expiry is checked on each incoming call;
	// there is no free-running timer.
	ContinuationWindow time.Duration
}

/*
====================================
DEVICE CONFIG
====================================
*/

// DeviceConfig is the device identity announced in token requests.
// Identifier defaults to a generated UUID; embedders should persist and
// supply it so the server recognizes the device across logins.
type DeviceConfig struct {
	Identifier string
	Name       string
	Type       DeviceType
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the optional Redis-backed login throttle.
type RateLimitConfig struct {
	Enabled          bool
	MaxLoginAttempts int
	Cooldown         time.Duration
	EnableIPThrottle bool
}

/*
====================================
PRELOGIN CONFIG
====================================
*/

// PreloginConfig tunes the optional Redis cache for prelogin KDF configs.
// KDF configs are immutable per account, so caching only skips a network
// round trip; it never changes derivation results.
type PreloginConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls asynchronous audit event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full. Dropped counts are observable via [Engine.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			ContinuationWindow: 2 * time.Minute,
		},
		Device: DeviceConfig{
			Name: "loginkit",
			Type: defaultDeviceType(),
		},
		RateLimit: RateLimitConfig{
			MaxLoginAttempts: 5,
			Cooldown:         15 * time.Minute,
		},
		Prelogin: PreloginConfig{
			CacheTTL: time.Hour,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Session.ContinuationWindow <= 0 {
		return errors.New("session continuation window must be positive")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts < 1 {
			return errors.New("rate limit max attempts must be >= 1")
		}
		if c.RateLimit.Cooldown <= 0 {
			return errors.New("rate limit cooldown must be positive")
		}
	}
	if c.Prelogin.CacheEnabled && c.Prelogin.CacheTTL <= 0 {
		return errors.New("prelogin cache ttl must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be >= 1")
	}
	return nil
}
