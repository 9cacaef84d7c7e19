package loginkit

import (
	"net/url"
	"runtime"
	"strconv"
)

// DeviceType identifies the kind of client device announced with every
// token request. The numeric values are part of the wire contract.
type DeviceType int

const (
	// DeviceTypeWindowsDesktop is a Windows desktop client.
	DeviceTypeWindowsDesktop DeviceType = 6
	// DeviceTypeMacOsDesktop is a macOS desktop client.
	DeviceTypeMacOsDesktop DeviceType = 7
	// DeviceTypeLinuxDesktop is a Linux desktop client.
	DeviceTypeLinuxDesktop DeviceType = 8
	// DeviceTypeUnknown is used when the platform cannot be determined.
	DeviceTypeUnknown DeviceType = 14
)

func defaultDeviceType() DeviceType {
	switch runtime.GOOS {
	case "windows":
		return DeviceTypeWindowsDesktop
	case "darwin":
		return DeviceTypeMacOsDesktop
	case "linux":
		return DeviceTypeLinuxDesktop
	default:
		return DeviceTypeUnknown
	}
}

// DeviceRequest is the device metadata attached to every token request.
type DeviceRequest struct {
	Identifier string
	Type       DeviceType
	Name       string
}

// Grant types accepted by the token endpoint.
const (
	grantTypePassword          = "password"
	grantTypeAuthorizationCode = "authorization_code"
	grantTypeClientCredentials = "client_credentials"
)

// TokenRequest is the wire request for one credential exchange. Strategies
// populate the fields for their grant type; captcha and two-factor payloads
// are attached by continuation calls. Secrets in this struct are hashes or
// server-issued codes, never the plaintext master password or master key.
type TokenRequest struct {
	GrantType string
	Device    DeviceRequest

	// Password grant and device-approval grant.
	Email              string
	MasterPasswordHash string
	AuthRequestID      string
	AccessCode         string

	// Authorization-code (SSO) grant.
	AuthorizationCode string
	CodeVerifier      string
	RedirectURI       string
	OrgIdentifier     string

	// Client-credentials (API key) grant.
	ClientID     string
	ClientSecret string

	CaptchaResponse string
	TwoFactor       *TwoFactorData
}

// Form encodes the request as the form body expected by the token
// endpoint. Only fields relevant to the grant type are emitted.
func (r *TokenRequest) Form() url.Values {
	v := url.Values{}
	v.Set("grant_type", r.GrantType)
	v.Set("deviceIdentifier", r.Device.Identifier)
	v.Set("deviceType", strconv.Itoa(int(r.Device.Type)))
	v.Set("deviceName", r.Device.Name)

	switch r.GrantType {
	case grantTypePassword:
		v.Set("username", r.Email)
		if r.AuthRequestID != "" {
			v.Set("authRequestId", r.AuthRequestID)
			v.Set("password", r.AccessCode)
		} else {
			v.Set("password", r.MasterPasswordHash)
		}
	case grantTypeAuthorizationCode:
		v.Set("code", r.AuthorizationCode)
		v.Set("code_verifier", r.CodeVerifier)
		v.Set("redirect_uri", r.RedirectURI)
	case grantTypeClientCredentials:
		v.Set("client_id", r.ClientID)
		v.Set("client_secret", r.ClientSecret)
		v.Set("scope", "api")
	}

	if r.CaptchaResponse != "" {
		v.Set("captchaResponse", r.CaptchaResponse)
	}
	if r.TwoFactor != nil {
		v.Set("twoFactorToken", r.TwoFactor.Token)
		v.Set("twoFactorProvider", strconv.Itoa(int(r.TwoFactor.Provider)))
		if r.TwoFactor.Remember {
			v.Set("twoFactorRemember", "1")
		} else {
			v.Set("twoFactorRemember", "0")
		}
	}
	return v
}
