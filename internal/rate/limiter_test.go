package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func TestLoginLimiterAllowsUnderBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 3, CooldownDuration: time.Minute})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}

	count, err := l.LoginAttempts(ctx, "alice@example.com")
	if err != nil || count != 3 {
		t.Fatalf("expected 3 attempts, got %d err %v", count, err)
	}
}

func TestLoginLimiterBlocksOverBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 2, CooldownDuration: time.Minute})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := l.IncrementLogin(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}
	if err := l.IncrementLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on third failure, got %v", err)
	}
	if err := l.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on check, got %v", err)
	}

	// Other accounts are unaffected.
	if err := l.CheckLogin(ctx, "bob@example.com", ""); err != nil {
		t.Fatalf("unrelated account must not be limited: %v", err)
	}
}

func TestLoginLimiterResetClearsCounters(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 1, CooldownDuration: time.Minute, EnableIPThrottle: true})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "10.0.0.1")
	}
	if err := l.CheckLogin(ctx, "alice@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if err := l.ResetLogin(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := l.CheckLogin(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected clean slate after reset, got %v", err)
	}
	count, err := l.LoginAttempts(ctx, "alice@example.com")
	if err != nil || count != 0 {
		t.Fatalf("expected 0 attempts after reset, got %d err %v", count, err)
	}
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxLoginAttempts: 1, CooldownDuration: time.Minute})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "")
	}
	if err := l.CheckLogin(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckLogin(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestLoginLimiterIPThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 1, CooldownDuration: time.Minute, EnableIPThrottle: true})

	ctx := context.Background()
	// Same IP, different accounts: the IP bucket trips.
	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "alice@example.com", "10.0.0.1")
	}
	if err := l.CheckLogin(ctx, "bob@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP throttle to apply across accounts, got %v", err)
	}
	if err := l.CheckLogin(ctx, "bob@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("different IP must pass: %v", err)
	}
}
