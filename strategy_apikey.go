package loginkit

import (
	"context"
	"fmt"
)

// apiKeyStrategy exchanges a personal API key via the client-credentials
// grant. API key logins never carry a master password, never hit a captcha
// or two-factor challenge, and always produce a locked session.
type apiKeyStrategy struct {
	engine     *Engine
	credential ApiKeyCredential
}

func newApiKeyStrategy(e *Engine, c ApiKeyCredential) *apiKeyStrategy {
	return &apiKeyStrategy{engine: e, credential: c}
}

func (s *apiKeyStrategy) buildRequest(context.Context) (*TokenRequest, error) {
	if s.credential.ClientID == "" || s.credential.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret required", ErrInvalidCredentialFormat)
	}

	return &TokenRequest{
		GrantType:    grantTypeClientCredentials,
		Device:       s.engine.deviceRequest(),
		ClientID:     s.credential.ClientID,
		ClientSecret: s.credential.ClientSecret,
	}, nil
}

func (s *apiKeyStrategy) email() string          { return "" }
func (s *apiKeyStrategy) serverAuthHash() string { return "" }

func (s *apiKeyStrategy) capturePolicies([]Policy)         {}
func (s *apiKeyStrategy) resetOptions() *forceResetOptions { return nil }

func (s *apiKeyStrategy) finalize(context.Context, *IdentityTokenPayload) (*sessionSecrets, error) {
	return &sessionSecrets{}, nil
}

func (s *apiKeyStrategy) destroy() {
	s.credential = ApiKeyCredential{}
}
