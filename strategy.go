package loginkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/veilock/loginkit/keys"
)

// personalApiKeyPrefix distinguishes personal API keys from organization
// keys, which this engine does not accept.
const personalApiKeyPrefix = "user."

// sessionSecrets is what a strategy hands back after a successful exchange:
// the decrypted user key (nil for sessions that start locked) and the local
// authorization hash when a master password was involved.
type sessionSecrets struct {
	userKey   *keys.UserKey
	localHash string
}

// forceResetOptions is a strategy's verdict on login-time password policy
// enforcement, produced after capturePolicies ran against the plaintext.
type forceResetOptions struct {
	reason          ForceResetReason
	forcingOrgID    string
	failingPolicies []Policy
}

// credentialStrategy is the per-credential-type behavior behind
// [Engine.Login]. A strategy lives for one attempt, surviving continuation
// pauses, and owns any derived key material until destroy.
type credentialStrategy interface {
	// buildRequest derives whatever the grant type needs and assembles the
	// wire request. Called once per attempt.
	buildRequest(ctx context.Context) (*TokenRequest, error)

	// email returns the account email when the strategy knows one, for rate
	// limiting and audit. May be empty.
	email() string

	// serverAuthHash returns the server authorization hash for the
	// two-factor email side effect. Empty for non-password strategies.
	serverAuthHash() string

	// capturePolicies evaluates login-enforced master password policies
	// while the plaintext is still available. Strategies without a
	// plaintext password ignore it. The verdict is deferred; it is read
	// back through resetOptions only after the exchange succeeds.
	capturePolicies(policies []Policy)

	// resetOptions returns the deferred policy verdict, or nil.
	resetOptions() *forceResetOptions

	// finalize turns the success payload into session secrets.
	finalize(ctx context.Context, payload *IdentityTokenPayload) (*sessionSecrets, error)

	// destroy zeroes any key material the strategy still holds. Safe to
	// call more than once.
	destroy()
}

// newStrategy dispatches a credential to its strategy. The switch is
// exhaustive over the closed [Credential] set.
func newStrategy(e *Engine, credential Credential) (credentialStrategy, error) {
	switch c := credential.(type) {
	case PasswordCredential:
		return newPasswordStrategy(e, c), nil
	case *PasswordCredential:
		return newPasswordStrategy(e, *c), nil

	case SsoCredential:
		return newSsoStrategy(e, c), nil
	case *SsoCredential:
		return newSsoStrategy(e, *c), nil

	case ApiKeyCredential:
		if !strings.HasPrefix(c.ClientID, personalApiKeyPrefix) {
			return nil, fmt.Errorf("%w: client id must start with %q", ErrInvalidCredentialFormat, personalApiKeyPrefix)
		}
		return newApiKeyStrategy(e, c), nil
	case *ApiKeyCredential:
		return newStrategy(e, *c)

	case DeviceApprovalCredential:
		return newDeviceApprovalStrategy(e, c), nil
	case *DeviceApprovalCredential:
		return newDeviceApprovalStrategy(e, *c), nil

	default:
		return nil, fmt.Errorf("%w: unsupported credential type %T", ErrInvalidCredentialFormat, credential)
	}
}

func (e *Engine) deviceRequest() DeviceRequest {
	return DeviceRequest{
		Identifier: e.config.Device.Identifier,
		Type:       e.config.Device.Type,
		Name:       e.config.Device.Name,
	}
}
