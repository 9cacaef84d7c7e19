package loginkit

import (
	"context"
	"fmt"

	"github.com/veilock/loginkit/keys"
)

// passwordStrategy is the email + master password flow: prelogin for the
// KDF config, key derivation, then a password-grant exchange carrying the
// server authorization hash. The plaintext is held only long enough to
// derive the key and evaluate policies, then zeroed.
type passwordStrategy struct {
	engine *Engine

	credentialEmail string
	password        []byte
	captchaToken    string
	twoFactor       *TwoFactorData

	masterKey  *keys.MasterKey
	serverHash string
	localHash  string

	reset *forceResetOptions
}

func newPasswordStrategy(e *Engine, c PasswordCredential) *passwordStrategy {
	return &passwordStrategy{
		engine:          e,
		credentialEmail: keys.NormalizeEmail(c.Email),
		password:        []byte(c.MasterPassword),
		captchaToken:    c.CaptchaToken,
		twoFactor:       c.TwoFactor,
	}
}

func (s *passwordStrategy) buildRequest(ctx context.Context) (*TokenRequest, error) {
	if s.credentialEmail == "" || len(s.password) == 0 {
		return nil, fmt.Errorf("%w: email and master password required", ErrInvalidCredentialFormat)
	}

	kdfConfig, err := s.engine.prelogin.Resolve(ctx, s.credentialEmail)
	if err != nil {
		return nil, err
	}

	s.masterKey, err = keys.DeriveMasterKey(s.password, s.credentialEmail, kdfConfig)
	if err != nil {
		return nil, err
	}

	s.serverHash, err = s.masterKey.HashPassword(s.password, keys.HashServerAuthorization)
	if err != nil {
		return nil, err
	}
	s.localHash, err = s.masterKey.HashPassword(s.password, keys.HashLocalAuthorization)
	if err != nil {
		return nil, err
	}

	return &TokenRequest{
		GrantType:          grantTypePassword,
		Device:             s.engine.deviceRequest(),
		Email:              s.credentialEmail,
		MasterPasswordHash: s.serverHash,
		CaptchaResponse:    s.captchaToken,
		TwoFactor:          s.twoFactor,
	}, nil
}

func (s *passwordStrategy) email() string          { return s.credentialEmail }
func (s *passwordStrategy) serverAuthHash() string { return s.serverHash }

// capturePolicies runs the policy check while the plaintext is still in
// memory. The verdict is deferred until the exchange actually succeeds;
// until then it stays invisible to the caller.
func (s *passwordStrategy) capturePolicies(policies []Policy) {
	if s.reset != nil || len(s.password) == 0 {
		return
	}

	password := string(s.password)
	score := PasswordStrength(password, EmailUserInputs(s.credentialEmail))
	metAll, orgID := EvaluateMasterPasswordPolicies(score, password, policies)
	if metAll {
		return
	}

	failing := make([]Policy, 0, 1)
	for _, p := range policies {
		if p.Type == PolicyMasterPassword && p.Enabled && p.Options.EnforceOnLogin {
			failing = append(failing, p)
		}
	}
	s.reset = &forceResetOptions{
		reason:          ForceResetWeakMasterPasswordOnLogin,
		forcingOrgID:    orgID,
		failingPolicies: failing,
	}
}

func (s *passwordStrategy) resetOptions() *forceResetOptions { return s.reset }

func (s *passwordStrategy) finalize(_ context.Context, payload *IdentityTokenPayload) (*sessionSecrets, error) {
	secrets := &sessionSecrets{localHash: s.localHash}

	if payload.Key != "" {
		userKey, err := s.masterKey.UnwrapUserKey(payload.Key)
		if err != nil {
			return nil, err
		}
		secrets.userKey = userKey
	}

	return secrets, nil
}

func (s *passwordStrategy) destroy() {
	keys.Zero(s.password)
	s.password = nil
	if s.masterKey != nil {
		s.masterKey.Destroy()
		s.masterKey = nil
	}
}
