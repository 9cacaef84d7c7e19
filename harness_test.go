package loginkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veilock/loginkit/keys"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct horse battery staple"
	testUserID   = "user-1234"
)

type exchangeStep struct {
	resp *TokenResponse
	err  error
}

// fakeIdentityClient scripts the identity endpoint: each TokenExchange call
// consumes the next step and records the request it saw.
type fakeIdentityClient struct {
	mu sync.Mutex

	kdf         *keys.KdfConfig
	preloginErr error

	steps    []exchangeStep
	requests []TokenRequest

	emailSends []string
}

func (f *fakeIdentityClient) PreLogin(_ context.Context, _ string) (*keys.KdfConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.preloginErr != nil {
		return nil, f.preloginErr
	}
	return f.kdf, nil
}

func (f *fakeIdentityClient) TokenExchange(_ context.Context, req *TokenRequest) (*TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *req
	if req.TwoFactor != nil {
		tf := *req.TwoFactor
		cp.TwoFactor = &tf
	}
	f.requests = append(f.requests, cp)

	if len(f.steps) == 0 {
		return nil, ErrAuthenticationRejected
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	return step.resp, step.err
}

func (f *fakeIdentityClient) SendTwoFactorEmail(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailSends = append(f.emailSends, email)
	return nil
}

func (f *fakeIdentityClient) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeIdentityClient) lastRequest(t *testing.T) TokenRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no token exchange recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestEngine(t *testing.T, client *fakeIdentityClient) *Engine {
	t.Helper()

	if client.kdf == nil {
		kdf := testKdfConfig()
		client.kdf = &kdf
	}

	cfg := defaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Device.Identifier = "test-device-id"
	cfg.Device.Name = "test-device"

	engine, err := New().
		WithConfig(cfg).
		WithIdentityClient(client).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// fixedClock pins the engine clock for continuation window tests.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func pinClock(e *Engine) *fixedClock {
	clock := &fixedClock{now: time.Now()}
	e.now = clock.Now
	return clock
}

func testAccessToken(t *testing.T, subject, email string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: email,
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}

// wrapTestUserKey wraps a fresh user key under the master key derived from
// the given password and email, returning both halves of the relationship.
func wrapTestUserKey(t *testing.T, password, email string) (string, *keys.UserKey) {
	t.Helper()

	masterKey, err := keys.DeriveMasterKey([]byte(password), email, testKdfConfig())
	if err != nil {
		t.Fatalf("derive master key: %v", err)
	}
	defer masterKey.Destroy()

	userKey, err := keys.NewUserKey()
	if err != nil {
		t.Fatalf("new user key: %v", err)
	}
	wrapped, err := masterKey.WrapUserKey(userKey)
	if err != nil {
		t.Fatalf("wrap user key: %v", err)
	}
	return wrapped, userKey
}

// testKdfConfig keeps derivation fast enough for the test suite.
func testKdfConfig() keys.KdfConfig {
	return keys.KdfConfig{Type: keys.KdfPBKDF2SHA256, Iterations: keys.MinPBKDF2Iterations}
}

func successResponse(t *testing.T, wrappedKey string) *TokenResponse {
	t.Helper()
	return &TokenResponse{Success: &IdentityTokenPayload{
		AccessToken:  testAccessToken(t, testUserID, testEmail),
		ExpiresIn:    3600,
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		Key:          wrappedKey,
	}}
}

func twoFactorResponse(providers map[TwoFactorProviderType]map[string]string) *TokenResponse {
	return &TokenResponse{TwoFactor: &IdentityTwoFactorPayload{Providers: providers}}
}
