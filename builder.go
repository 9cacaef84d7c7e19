package loginkit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veilock/loginkit/internal/rate"
)

// Builder assembles an [Engine]. A Builder is single-use; Build returns an
// error on reuse.
type Builder struct {
	config    Config
	identity  IdentityClient
	decrypter UserKeyDecrypter
	redis     *redis.Client
	auditSink AuditSink

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityClient supplies the identity endpoint implementation.
// Required.
func (b *Builder) WithIdentityClient(c IdentityClient) *Builder {
	b.identity = c
	return b
}

// WithUserKeyDecrypter supplies the unwrap indirection for SSO and key
// connector accounts. Optional; without it those sessions start locked.
func (b *Builder) WithUserKeyDecrypter(d UserKeyDecrypter) *Builder {
	b.decrypter = d
	return b
}

// WithRedis supplies the Redis client backing the login throttle and the
// prelogin KDF cache. Required only when either feature is enabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink supplies the audit event destination.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.identity == nil {
		return nil, errors.New("identity client required")
	}
	if b.redis == nil && (cfg.RateLimit.Enabled || cfg.Prelogin.CacheEnabled) {
		return nil, errors.New("rate limiting and prelogin caching require a redis client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Device.Identifier == "" {
		cfg.Device.Identifier = uuid.NewString()
	}

	metrics := NewMetrics(cfg.Metrics)

	e := &Engine{
		config:       cfg,
		identity:     b.identity,
		keyDecrypter: b.decrypter,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      metrics,
		sessions:     make(map[string]*SessionState),
		now:          time.Now,
	}

	if cfg.RateLimit.Enabled {
		e.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			CooldownDuration: cfg.RateLimit.Cooldown,
		})
	}

	e.prelogin = &preloginResolver{
		client:  b.identity,
		metrics: metrics,
	}
	if cfg.Prelogin.CacheEnabled {
		e.prelogin.redis = b.redis
		e.prelogin.ttl = cfg.Prelogin.CacheTTL
	}

	b.built = true
	return e, nil
}
