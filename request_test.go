package loginkit

import "testing"

func testDevice() DeviceRequest {
	return DeviceRequest{Identifier: "dev-1", Type: DeviceTypeLinuxDesktop, Name: "workstation"}
}

func TestTokenRequestFormPasswordGrant(t *testing.T) {
	req := &TokenRequest{
		GrantType:          grantTypePassword,
		Device:             testDevice(),
		Email:              testEmail,
		MasterPasswordHash: "hash==",
		CaptchaResponse:    "captcha-token",
	}

	form := req.Form()
	if form.Get("grant_type") != "password" || form.Get("username") != testEmail {
		t.Fatalf("unexpected form: %v", form)
	}
	if form.Get("password") != "hash==" {
		t.Fatalf("expected server hash in password field, got %q", form.Get("password"))
	}
	if form.Get("deviceIdentifier") != "dev-1" || form.Get("deviceType") != "8" || form.Get("deviceName") != "workstation" {
		t.Fatalf("unexpected device fields: %v", form)
	}
	if form.Get("captchaResponse") != "captcha-token" {
		t.Fatal("expected captcha response field")
	}
	if form.Has("twoFactorToken") {
		t.Fatal("no two-factor fields without a payload")
	}
}

func TestTokenRequestFormDeviceApproval(t *testing.T) {
	req := &TokenRequest{
		GrantType:     grantTypePassword,
		Device:        testDevice(),
		Email:         testEmail,
		AuthRequestID: "req-1",
		AccessCode:    "access-code",
	}

	form := req.Form()
	if form.Get("authRequestId") != "req-1" {
		t.Fatal("expected auth request id field")
	}
	if form.Get("password") != "access-code" {
		t.Fatalf("access code must ride the password field, got %q", form.Get("password"))
	}
}

func TestTokenRequestFormAuthorizationCodeGrant(t *testing.T) {
	req := &TokenRequest{
		GrantType:         grantTypeAuthorizationCode,
		Device:            testDevice(),
		AuthorizationCode: "code-1",
		CodeVerifier:      "verifier-1",
		RedirectURI:       "https://localhost/callback",
	}

	form := req.Form()
	if form.Get("code") != "code-1" || form.Get("code_verifier") != "verifier-1" || form.Get("redirect_uri") != "https://localhost/callback" {
		t.Fatalf("unexpected form: %v", form)
	}
	if form.Has("username") || form.Has("password") {
		t.Fatal("authorization-code grant must not emit password fields")
	}
}

func TestTokenRequestFormClientCredentialsGrant(t *testing.T) {
	req := &TokenRequest{
		GrantType:    grantTypeClientCredentials,
		Device:       testDevice(),
		ClientID:     "user.abc",
		ClientSecret: "secret",
	}

	form := req.Form()
	if form.Get("client_id") != "user.abc" || form.Get("client_secret") != "secret" {
		t.Fatalf("unexpected form: %v", form)
	}
	if form.Get("scope") != "api" {
		t.Fatal("expected api scope")
	}
}

func TestTokenRequestFormTwoFactorFields(t *testing.T) {
	req := &TokenRequest{
		GrantType: grantTypePassword,
		Device:    testDevice(),
		Email:     testEmail,
		TwoFactor: &TwoFactorData{Provider: TwoFactorWebAuthn, Token: "assertion", Remember: true},
	}

	form := req.Form()
	if form.Get("twoFactorToken") != "assertion" || form.Get("twoFactorProvider") != "7" || form.Get("twoFactorRemember") != "1" {
		t.Fatalf("unexpected two-factor fields: %v", form)
	}

	req.TwoFactor.Remember = false
	if got := req.Form().Get("twoFactorRemember"); got != "0" {
		t.Fatalf("expected remember=0, got %q", got)
	}
}
