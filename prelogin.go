package loginkit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veilock/loginkit/keys"
)

const preloginCacheKeyPrefix = "plk:"

// preloginResolver fetches the account's KDF configuration before key
// derivation, with an optional Redis cache in front. Cache keys are hashed
// emails; only the KDF parameters are stored, never any secret.
type preloginResolver struct {
	client  IdentityClient
	redis   redis.UniversalClient
	ttl     time.Duration
	metrics *Metrics
}

// Resolve returns the KDF configuration for an email. Unknown accounts get
// the default configuration so callers cannot distinguish them from real
// ones. A backend failure is reported as [ErrPreloginUnavailable].
func (p *preloginResolver) Resolve(ctx context.Context, email string) (keys.KdfConfig, error) {
	normalized := keys.NormalizeEmail(email)

	if cfg, ok := p.cacheGet(ctx, normalized); ok {
		return cfg, nil
	}

	cfg, err := p.client.PreLogin(ctx, normalized)
	if err != nil {
		return keys.KdfConfig{}, fmt.Errorf("%w: %v", ErrPreloginUnavailable, err)
	}
	if cfg == nil {
		// Unknown email. The server answers with defaults rather than a
		// distinguishable error, and so do we.
		def := keys.DefaultKdfConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return keys.KdfConfig{}, fmt.Errorf("%w: %v", ErrPreloginUnavailable, err)
	}

	p.cacheSet(ctx, normalized, *cfg)
	return *cfg, nil
}

func (p *preloginResolver) cacheGet(ctx context.Context, normalizedEmail string) (keys.KdfConfig, bool) {
	if p.redis == nil {
		return keys.KdfConfig{}, false
	}

	raw, err := p.redis.Get(ctx, preloginCacheKey(normalizedEmail)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			warnf("prelogin cache read failed: %v", err)
		}
		p.metrics.Inc(MetricPreloginCacheMiss)
		return keys.KdfConfig{}, false
	}

	var cfg keys.KdfConfig
	if err := json.Unmarshal(raw, &cfg); err != nil || cfg.Validate() != nil {
		p.metrics.Inc(MetricPreloginCacheMiss)
		return keys.KdfConfig{}, false
	}

	p.metrics.Inc(MetricPreloginCacheHit)
	return cfg, true
}

func (p *preloginResolver) cacheSet(ctx context.Context, normalizedEmail string, cfg keys.KdfConfig) {
	if p.redis == nil {
		return
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, preloginCacheKey(normalizedEmail), raw, p.ttl).Err(); err != nil {
		warnf("prelogin cache write failed: %v", err)
	}
}

func preloginCacheKey(normalizedEmail string) string {
	sum := sha256.Sum256([]byte(normalizedEmail))
	return preloginCacheKeyPrefix + hex.EncodeToString(sum[:])
}
