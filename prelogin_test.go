package loginkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veilock/loginkit/keys"
)

func newCachedResolver(t *testing.T, client *fakeIdentityClient) (*preloginResolver, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	metrics := NewMetrics(MetricsConfig{Enabled: true})
	return &preloginResolver{
		client:  client,
		redis:   rdb,
		ttl:     time.Hour,
		metrics: metrics,
	}, mr
}

func TestPreloginResolveCachesKdfConfig(t *testing.T) {
	kdf := keys.KdfConfig{Type: keys.KdfArgon2id, Iterations: 3, MemoryMiB: 64, Parallelism: 4}
	client := &fakeIdentityClient{kdf: &kdf}
	resolver, _ := newCachedResolver(t, client)

	got, err := resolver.Resolve(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != kdf {
		t.Fatalf("got %+v, want %+v", got, kdf)
	}
	if resolver.metrics.Value(MetricPreloginCacheMiss) != 1 {
		t.Fatal("first resolve must be a cache miss")
	}

	// Second resolve is served from the cache; break the backend to prove it.
	client.mu.Lock()
	client.preloginErr = errors.New("backend down")
	client.mu.Unlock()

	got, err = resolver.Resolve(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("cached Resolve failed: %v", err)
	}
	if got != kdf {
		t.Fatalf("cached config mismatch: %+v", got)
	}
	if resolver.metrics.Value(MetricPreloginCacheHit) != 1 {
		t.Fatal("second resolve must be a cache hit")
	}
}

func TestPreloginCacheKeyedByNormalizedEmail(t *testing.T) {
	kdf := testKdfConfig()
	client := &fakeIdentityClient{kdf: &kdf}
	resolver, _ := newCachedResolver(t, client)

	if _, err := resolver.Resolve(context.Background(), "Alice@Example.COM "); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	client.mu.Lock()
	client.preloginErr = errors.New("backend down")
	client.mu.Unlock()

	if _, err := resolver.Resolve(context.Background(), testEmail); err != nil {
		t.Fatalf("expected cache hit via normalized key: %v", err)
	}
}

func TestPreloginUnknownEmailGetsDefaults(t *testing.T) {
	// (nil, nil) from the client means the server does not know the email.
	client := &fakeIdentityClient{}
	resolver := &preloginResolver{client: client}

	got, err := resolver.Resolve(context.Background(), "unknown@example.com")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != keys.DefaultKdfConfig() {
		t.Fatalf("expected default kdf config, got %+v", got)
	}
}

func TestPreloginBackendFailure(t *testing.T) {
	client := &fakeIdentityClient{preloginErr: errors.New("503")}
	resolver := &preloginResolver{client: client}

	if _, err := resolver.Resolve(context.Background(), testEmail); !errors.Is(err, ErrPreloginUnavailable) {
		t.Fatalf("expected ErrPreloginUnavailable, got %v", err)
	}
}

func TestPreloginInvalidServerConfigRejected(t *testing.T) {
	// A below-floor iteration count never reaches derivation.
	bad := keys.KdfConfig{Type: keys.KdfPBKDF2SHA256, Iterations: 100}
	client := &fakeIdentityClient{kdf: &bad}
	resolver := &preloginResolver{client: client}

	if _, err := resolver.Resolve(context.Background(), testEmail); !errors.Is(err, ErrPreloginUnavailable) {
		t.Fatalf("expected ErrPreloginUnavailable for bad config, got %v", err)
	}
}

func TestPreloginCorruptCacheEntryFallsThrough(t *testing.T) {
	kdf := testKdfConfig()
	client := &fakeIdentityClient{kdf: &kdf}
	resolver, mr := newCachedResolver(t, client)

	if err := mr.Set(preloginCacheKey(testEmail), "not json"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != kdf {
		t.Fatalf("expected backend config after corrupt cache entry, got %+v", got)
	}
}
