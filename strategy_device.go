package loginkit

import (
	"context"
	"fmt"

	"github.com/veilock/loginkit/keys"
)

// deviceApprovalStrategy redeems an auth request that was approved on
// another trusted device. The exchange rides the password grant with the
// access code standing in for the password hash. The user key, when the
// approving device conveyed one, arrives with the credential rather than
// from the server payload.
type deviceApprovalStrategy struct {
	engine *Engine

	credentialEmail string
	accessCode      string
	authRequestID   string
	userKey         *keys.UserKey
	twoFactor       *TwoFactorData
}

func newDeviceApprovalStrategy(e *Engine, c DeviceApprovalCredential) *deviceApprovalStrategy {
	return &deviceApprovalStrategy{
		engine:          e,
		credentialEmail: keys.NormalizeEmail(c.Email),
		accessCode:      c.AccessCode,
		authRequestID:   c.AuthRequestID,
		userKey:         c.Key,
		twoFactor:       c.TwoFactor,
	}
}

func (s *deviceApprovalStrategy) buildRequest(context.Context) (*TokenRequest, error) {
	if s.credentialEmail == "" || s.accessCode == "" || s.authRequestID == "" {
		return nil, fmt.Errorf("%w: email, access code, and auth request id required", ErrInvalidCredentialFormat)
	}

	return &TokenRequest{
		GrantType:     grantTypePassword,
		Device:        s.engine.deviceRequest(),
		Email:         s.credentialEmail,
		AuthRequestID: s.authRequestID,
		AccessCode:    s.accessCode,
		TwoFactor:     s.twoFactor,
	}, nil
}

func (s *deviceApprovalStrategy) email() string          { return s.credentialEmail }
func (s *deviceApprovalStrategy) serverAuthHash() string { return "" }

func (s *deviceApprovalStrategy) capturePolicies([]Policy)         {}
func (s *deviceApprovalStrategy) resetOptions() *forceResetOptions { return nil }

func (s *deviceApprovalStrategy) finalize(context.Context, *IdentityTokenPayload) (*sessionSecrets, error) {
	secrets := &sessionSecrets{userKey: s.userKey}
	// Ownership moves to the session; destroy must not zero it afterward.
	s.userKey = nil
	return secrets, nil
}

func (s *deviceApprovalStrategy) destroy() {
	s.accessCode = ""
	if s.userKey != nil {
		s.userKey.Destroy()
		s.userKey = nil
	}
}
