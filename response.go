package loginkit

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/veilock/loginkit/keys"
)

// IdentityTokenPayload is the success shape of the token endpoint.
type IdentityTokenPayload struct {
	AccessToken  string
	ExpiresIn    int
	RefreshToken string
	TokenType    string

	// Key is the account user key wrapped under the master key, as an
	// enc string. Empty for accounts that have not provisioned one yet.
	Key string
	// PrivateKey is the account RSA private key wrapped under the user
	// key; consumed by the SSO unwrap indirection, opaque here.
	PrivateKey string

	Kdf            keys.KdfType
	KdfIterations  int
	KdfMemoryMiB   int
	KdfParallelism int

	// TwoFactorToken is the remember-device token issued when the user
	// opted to skip two-factor on this device.
	TwoFactorToken string

	ForcePasswordReset  bool
	ResetMasterPassword bool

	ApiUseKeyConnector bool
	KeyConnectorURL    string

	MasterPasswordPolicies []Policy
}

// IdentityTwoFactorPayload is the two-factor challenge shape.
type IdentityTwoFactorPayload struct {
	// Providers maps each available provider to its metadata (for example
	// the obscured email address for the email provider).
	Providers map[TwoFactorProviderType]map[string]string

	// CaptchaToken is a bypass token that lets the continuation call skip
	// a repeated captcha.
	CaptchaToken string

	MasterPasswordPolicies []Policy
}

// IdentityCaptchaPayload is the captcha challenge shape.
type IdentityCaptchaPayload struct {
	SiteKey string
}

// TokenResponse is the decoded result of one token exchange. Exactly one
// of the three payloads is non-nil; the shapes share a single logical
// endpoint and are distinguished by field presence, not status routes.
type TokenResponse struct {
	Success   *IdentityTokenPayload
	TwoFactor *IdentityTwoFactorPayload
	Captcha   *IdentityCaptchaPayload
}

type rawPolicyData struct {
	MinComplexity  int  `json:"minComplexity"`
	MinLength      int  `json:"minLength"`
	RequireUpper   bool `json:"requireUpper"`
	RequireLower   bool `json:"requireLower"`
	RequireNumbers bool `json:"requireNumbers"`
	RequireSpecial bool `json:"requireSpecial"`
	EnforceOnLogin bool `json:"enforceOnLogin"`
}

type rawPolicy struct {
	ID             string        `json:"Id"`
	OrganizationID string        `json:"OrganizationId"`
	Type           PolicyType    `json:"Type"`
	Enabled        bool          `json:"Enabled"`
	Data           rawPolicyData `json:"Data"`
}

type rawIdentityResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`

	Key            string       `json:"Key"`
	PrivateKey     string       `json:"PrivateKey"`
	Kdf            keys.KdfType `json:"Kdf"`
	KdfIterations  int          `json:"KdfIterations"`
	KdfMemory      int          `json:"KdfMemory"`
	KdfParallelism int          `json:"KdfParallelism"`

	TwoFactorToken      string `json:"TwoFactorToken"`
	ForcePasswordReset  bool   `json:"ForcePasswordReset"`
	ResetMasterPassword bool   `json:"ResetMasterPassword"`
	ApiUseKeyConnector  bool   `json:"ApiUseKeyConnector"`
	KeyConnectorURL     string `json:"KeyConnectorUrl"`

	TwoFactorProviders2 map[string]map[string]string `json:"TwoFactorProviders2"`
	CaptchaBypassToken  string                       `json:"CaptchaBypassToken"`

	HCaptchaSiteKey string `json:"HCaptcha_SiteKey"`

	MasterPasswordPolicies []rawPolicy `json:"MasterPasswordPolicies"`
}

// ParseIdentityResponse decodes a token endpoint body into one of the
// three response shapes. Intended for [IdentityClient] implementations;
// the engine itself only consumes the decoded [TokenResponse].
func ParseIdentityResponse(body []byte) (*TokenResponse, error) {
	var raw rawIdentityResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("identity response: %w", err)
	}

	switch {
	case raw.HCaptchaSiteKey != "":
		return &TokenResponse{Captcha: &IdentityCaptchaPayload{SiteKey: raw.HCaptchaSiteKey}}, nil

	case raw.TwoFactorProviders2 != nil:
		providers := make(map[TwoFactorProviderType]map[string]string, len(raw.TwoFactorProviders2))
		for id, meta := range raw.TwoFactorProviders2 {
			n, err := strconv.Atoi(id)
			if err != nil {
				return nil, fmt.Errorf("identity response: bad provider id %q", id)
			}
			providers[TwoFactorProviderType(n)] = meta
		}
		return &TokenResponse{TwoFactor: &IdentityTwoFactorPayload{
			Providers:              providers,
			CaptchaToken:           raw.CaptchaBypassToken,
			MasterPasswordPolicies: convertPolicies(raw.MasterPasswordPolicies),
		}}, nil

	case raw.AccessToken != "":
		return &TokenResponse{Success: &IdentityTokenPayload{
			AccessToken:            raw.AccessToken,
			ExpiresIn:              raw.ExpiresIn,
			RefreshToken:           raw.RefreshToken,
			TokenType:              raw.TokenType,
			Key:                    raw.Key,
			PrivateKey:             raw.PrivateKey,
			Kdf:                    raw.Kdf,
			KdfIterations:          raw.KdfIterations,
			KdfMemoryMiB:           raw.KdfMemory,
			KdfParallelism:         raw.KdfParallelism,
			TwoFactorToken:         raw.TwoFactorToken,
			ForcePasswordReset:     raw.ForcePasswordReset,
			ResetMasterPassword:    raw.ResetMasterPassword,
			ApiUseKeyConnector:     raw.ApiUseKeyConnector,
			KeyConnectorURL:        raw.KeyConnectorURL,
			MasterPasswordPolicies: convertPolicies(raw.MasterPasswordPolicies),
		}}, nil

	default:
		return nil, ErrAuthenticationRejected
	}
}

func convertPolicies(raw []rawPolicy) []Policy {
	if len(raw) == 0 {
		return nil
	}
	policies := make([]Policy, 0, len(raw))
	for _, p := range raw {
		policies = append(policies, Policy{
			ID:             p.ID,
			OrganizationID: p.OrganizationID,
			Type:           p.Type,
			Enabled:        p.Enabled,
			Options: MasterPasswordPolicyOptions{
				MinComplexity:  p.Data.MinComplexity,
				MinLength:      p.Data.MinLength,
				RequireUpper:   p.Data.RequireUpper,
				RequireLower:   p.Data.RequireLower,
				RequireNumbers: p.Data.RequireNumbers,
				RequireSpecial: p.Data.RequireSpecial,
				EnforceOnLogin: p.Data.EnforceOnLogin,
			},
		})
	}
	return policies
}
