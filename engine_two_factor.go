package loginkit

import "context"

// LoginTwoFactor completes a login that stopped at a two-factor challenge.
// It re-plays the pending exchange with the token attached; the derived key
// material from the original call is reused, no rederivation happens.
//
// The continuation is valid for the configured window since the last
// activity on the attempt. An expired or absent attempt returns
// [ErrSessionExpired] and the caller must start over with [Engine.Login].
// captchaResponse, when non-empty, answers a captcha raised during the
// continuation; otherwise the bypass token from the original challenge is
// replayed.
func (e *Engine) LoginTwoFactor(ctx context.Context, provider TwoFactorProviderType, token string, remember bool, captchaResponse string) (*AuthResult, error) {
	if e == nil || e.identity == nil {
		return nil, ErrEngineNotReady
	}

	attempt, ok := e.takeAttempt()
	if !ok {
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventSessionExpired, false, "", "", ErrSessionExpired, nil)
		return nil, ErrSessionExpired
	}

	req := attempt.request
	req.TwoFactor = &TwoFactorData{
		Provider: provider,
		Token:    token,
		Remember: remember,
	}
	if captchaResponse != "" {
		req.CaptchaResponse = captchaResponse
	} else if attempt.captchaBypass != "" {
		req.CaptchaResponse = attempt.captchaBypass
	}

	return e.exchange(ctx, attempt.strategy, req, true)
}
