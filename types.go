package loginkit

import (
	"context"

	"github.com/veilock/loginkit/keys"
)

// CredentialType tags the authentication method of a [Credential].
type CredentialType uint8

const (
	// CredentialTypePassword authenticates with email + master password.
	CredentialTypePassword CredentialType = iota
	// CredentialTypeSso authenticates with an SSO authorization code.
	CredentialTypeSso
	// CredentialTypeApiKey authenticates with a personal API key pair.
	CredentialTypeApiKey
	// CredentialTypeDeviceApproval authenticates with a request approved
	// out-of-band on another trusted device.
	CredentialTypeDeviceApproval
)

// Credential is the closed set of inputs accepted by [Engine.Login].
// Exactly one variant is supplied per attempt; dispatch is by exhaustive
// switch on the concrete type.
type Credential interface {
	credentialType() CredentialType
}

// TwoFactorData carries an explicit two-factor payload attached to a
// credential or continuation call.
type TwoFactorData struct {
	Provider TwoFactorProviderType
	Token    string
	Remember bool
}

// PasswordCredential is the master-password variant. The plaintext password
// is copied and zeroed by the engine; the caller should not retain it.
type PasswordCredential struct {
	Email          string
	MasterPassword string
	CaptchaToken   string
	TwoFactor      *TwoFactorData
}

func (PasswordCredential) credentialType() CredentialType { return CredentialTypePassword }

// SsoCredential is the SSO variant: an authorization code + PKCE verifier
// pair obtained from the browser redirect, which this engine treats as
// opaque.
type SsoCredential struct {
	AuthorizationCode string
	CodeVerifier      string
	RedirectURI       string
	OrgIdentifier     string
	TwoFactor         *TwoFactorData
}

func (SsoCredential) credentialType() CredentialType { return CredentialTypeSso }

// ApiKeyCredential is the personal API key variant. ClientID must carry
// the personal key prefix; organization keys are not accepted here.
type ApiKeyCredential struct {
	ClientID     string
	ClientSecret string
}

func (ApiKeyCredential) credentialType() CredentialType { return CredentialTypeApiKey }

// DeviceApprovalCredential is the passwordless variant: a previously
// approved auth request. Key, when present, is the user key conveyed by
// the approving device; without it the session starts locked.
type DeviceApprovalCredential struct {
	Email         string
	AccessCode    string
	AuthRequestID string
	Key           *keys.UserKey
	TwoFactor     *TwoFactorData
}

func (DeviceApprovalCredential) credentialType() CredentialType { return CredentialTypeDeviceApproval }

// TwoFactorProviderType identifies an out-of-band verification method.
// The numeric values are part of the identity endpoint wire contract.
type TwoFactorProviderType uint8

const (
	// TwoFactorAuthenticator is a TOTP authenticator app.
	TwoFactorAuthenticator TwoFactorProviderType = 0
	// TwoFactorEmail is an emailed one-time code.
	TwoFactorEmail TwoFactorProviderType = 1
	// TwoFactorDuo is a Duo push.
	TwoFactorDuo TwoFactorProviderType = 2
	// TwoFactorYubiKey is a YubiKey OTP.
	TwoFactorYubiKey TwoFactorProviderType = 3
	// TwoFactorRemember replays a remembered-device token.
	TwoFactorRemember TwoFactorProviderType = 5
	// TwoFactorOrganizationDuo is a Duo push configured by an organization.
	TwoFactorOrganizationDuo TwoFactorProviderType = 6
	// TwoFactorWebAuthn is a WebAuthn assertion.
	TwoFactorWebAuthn TwoFactorProviderType = 7
)

// AuthenticationStatus is derived from whether a user key is resident in
// memory, not from network state.
type AuthenticationStatus uint8

const (
	// StatusLoggedOut means no session exists for the account.
	StatusLoggedOut AuthenticationStatus = iota
	// StatusLocked means a session exists but its user key is not resident.
	StatusLocked
	// StatusUnlocked means the session's user key is resident in memory.
	StatusUnlocked
)

// ForceResetReason explains why a successful login was flagged for a
// forced master password change.
type ForceResetReason uint8

const (
	// ForceResetNone means no reset is being forced.
	ForceResetNone ForceResetReason = iota
	// ForceResetAdmin means an organization admin forced the reset.
	ForceResetAdmin
	// ForceResetWeakMasterPasswordOnLogin means the password used to log
	// in does not satisfy an organization policy enforced on login.
	ForceResetWeakMasterPasswordOnLogin
)

// PolicyType identifies an organization policy kind. Only
// PolicyMasterPassword participates in login-time enforcement.
type PolicyType uint8

const (
	// PolicyTwoFactorAuthentication requires members to use two-factor.
	PolicyTwoFactorAuthentication PolicyType = 0
	// PolicyMasterPassword constrains member master password strength.
	PolicyMasterPassword PolicyType = 1
)

// MasterPasswordPolicyOptions are the constraints a master password policy
// places on member passwords.
type MasterPasswordPolicyOptions struct {
	MinComplexity  int
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumbers bool
	RequireSpecial bool

	// EnforceOnLogin makes the policy participate in login-time
	// enforcement; without it the policy only applies at password change.
	EnforceOnLogin bool
}

// Policy is an organization-defined rule returned alongside identity
// responses for the user's organizations.
type Policy struct {
	ID             string
	OrganizationID string
	Type           PolicyType
	Enabled        bool
	Options        MasterPasswordPolicyOptions
}

// SessionTokens are the server-issued tokens of an authenticated session.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthResult is the outcome of a single [Engine.Login] or
// [Engine.LoginTwoFactor] call. RequiresCaptcha, RequiresTwoFactor, and
// success-with-tokens are mutually exclusive terminal outcomes;
// ForcePasswordReset can only be set once Tokens are present.
type AuthResult struct {
	// CaptchaSiteKey, when non-empty, means the caller must obtain a
	// client-side captcha response and re-invoke with it attached.
	CaptchaSiteKey string

	// TwoFactorProviders, when non-nil, lists the available providers
	// with per-provider metadata. The caller continues via LoginTwoFactor.
	TwoFactorProviders map[TwoFactorProviderType]map[string]string

	Tokens    *SessionTokens
	AccountID string
	Email     string

	// ResetMasterPassword means the account has no usable master password
	// (key connector account) and must create one.
	ResetMasterPassword bool

	ForcePasswordReset bool
	ForceResetReason   ForceResetReason
	// ForcingOrgID is the organization whose policy triggered the forced
	// reset, when the reason is a login-time policy failure.
	ForcingOrgID string
	// FailingPolicies is retained for the forced-change flow to reuse.
	FailingPolicies []Policy
}

// RequiresCaptcha reports whether the attempt stopped at a captcha
// challenge.
func (r *AuthResult) RequiresCaptcha() bool {
	return r != nil && r.CaptchaSiteKey != ""
}

// RequiresTwoFactor reports whether the attempt stopped at a two-factor
// challenge.
func (r *AuthResult) RequiresTwoFactor() bool {
	return r != nil && r.TwoFactorProviders != nil
}

// Authenticated reports whether session tokens were issued.
func (r *AuthResult) Authenticated() bool {
	return r != nil && r.Tokens != nil
}

// IdentityClient is the engine's view of the identity endpoint. Implemented
// by the embedding application's HTTP layer; the engine never constructs
// network connections itself.
//
// TokenExchange serves the single logical credential-exchange endpoint.
// The three response shapes (success, captcha challenge, two-factor
// challenge) are distinguished by field presence in [TokenResponse], not by
// separate endpoints. Transport-level failures are returned as errors;
// a credential the server refused is reported via [ErrAuthenticationRejected].
type IdentityClient interface {
	// PreLogin fetches the account's KDF config. A (nil, nil) return means
	// the server does not know the email and defaults apply.
	PreLogin(ctx context.Context, email string) (*keys.KdfConfig, error)
	TokenExchange(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
	// SendTwoFactorEmail asks the server to email a one-time code.
	// Fire-and-forget from the engine's perspective.
	SendTwoFactorEmail(ctx context.Context, email, serverAuthHash string) error
}

// UserKeyDecrypter resolves a wrapped user key that the master key cannot
// unwrap directly: SSO accounts with an RSA device keypair and key
// connector accounts. The engine is agnostic to which; it receives an
// unwrapped key or an error.
type UserKeyDecrypter interface {
	DecryptUserKey(ctx context.Context, payload *IdentityTokenPayload) (*keys.UserKey, error)
}
