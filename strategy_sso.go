package loginkit

import (
	"context"
	"fmt"
)

// ssoStrategy exchanges an SSO authorization code via the
// authorization-code grant. There is no master password, so the user key
// can only be recovered through the configured [UserKeyDecrypter]; without
// one the session starts locked.
type ssoStrategy struct {
	engine     *Engine
	credential SsoCredential

	accountEmail string
}

func newSsoStrategy(e *Engine, c SsoCredential) *ssoStrategy {
	return &ssoStrategy{engine: e, credential: c}
}

func (s *ssoStrategy) buildRequest(context.Context) (*TokenRequest, error) {
	if s.credential.AuthorizationCode == "" || s.credential.CodeVerifier == "" || s.credential.RedirectURI == "" {
		return nil, fmt.Errorf("%w: authorization code, verifier, and redirect uri required", ErrInvalidCredentialFormat)
	}

	return &TokenRequest{
		GrantType:         grantTypeAuthorizationCode,
		Device:            s.engine.deviceRequest(),
		AuthorizationCode: s.credential.AuthorizationCode,
		CodeVerifier:      s.credential.CodeVerifier,
		RedirectURI:       s.credential.RedirectURI,
		OrgIdentifier:     s.credential.OrgIdentifier,
		TwoFactor:         s.credential.TwoFactor,
	}, nil
}

// email is unknown until the identity token is decoded; stays empty before
// then, which also exempts SSO attempts from the email throttle bucket.
func (s *ssoStrategy) email() string          { return s.accountEmail }
func (s *ssoStrategy) serverAuthHash() string { return "" }

func (s *ssoStrategy) capturePolicies([]Policy)         {}
func (s *ssoStrategy) resetOptions() *forceResetOptions { return nil }

func (s *ssoStrategy) finalize(ctx context.Context, payload *IdentityTokenPayload) (*sessionSecrets, error) {
	secrets := &sessionSecrets{}

	if s.engine.keyDecrypter != nil && (payload.Key != "" || payload.ApiUseKeyConnector) {
		userKey, err := s.engine.keyDecrypter.DecryptUserKey(ctx, payload)
		if err != nil {
			return nil, err
		}
		secrets.userKey = userKey
	}

	return secrets, nil
}

func (s *ssoStrategy) destroy() {
	// Authorization codes are single-use server-side artifacts; nothing
	// derived is held here.
	s.credential = SsoCredential{}
}
