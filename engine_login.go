package loginkit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/veilock/loginkit/internal/rate"
)

// Login runs one credential exchange. The returned [AuthResult] is exactly
// one of three outcomes: a captcha challenge, a two-factor challenge, or an
// authenticated session. Starting a new login discards any pending
// continuation from an earlier attempt.
//
// A captcha challenge carries no engine-side state; the caller solves it
// and calls Login again with the response attached to the credential. A
// two-factor challenge arms a continuation that [Engine.LoginTwoFactor]
// completes, valid for the configured continuation window.
func (e *Engine) Login(ctx context.Context, credential Credential) (*AuthResult, error) {
	if e == nil || e.identity == nil {
		return nil, ErrEngineNotReady
	}

	e.clearAttempt()

	strategy, err := newStrategy(e, credential)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return nil, err
	}

	// Throttle before key derivation; a blocked attempt pays no KDF cost.
	if err := e.checkRateLimit(ctx, strategy.email()); err != nil {
		strategy.destroy()
		return nil, err
	}

	req, err := strategy.buildRequest(ctx)
	if err != nil {
		strategy.destroy()
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", strategy.email(), err, nil)
		return nil, err
	}

	return e.exchange(ctx, strategy, req, false)
}

// exchange performs the token call and classifies the response. For a
// continuation re-exchange the armed attempt survives a rejection so the
// user can retry with a fresh token.
func (e *Engine) exchange(ctx context.Context, strategy credentialStrategy, req *TokenRequest, continuation bool) (*AuthResult, error) {
	resp, err := e.identity.TokenExchange(ctx, req)
	if err != nil {
		return nil, e.exchangeFailed(ctx, strategy, err, continuation)
	}

	switch {
	case resp.Captcha != nil:
		// During a continuation the attempt stays armed; the user answers
		// the captcha on the next LoginTwoFactor call. A fresh login holds
		// no state, the caller re-invokes Login with the response attached.
		if !continuation {
			strategy.destroy()
		}
		e.metricInc(MetricCaptchaRequired)
		e.emitAudit(ctx, auditEventCaptchaRequired, false, "", strategy.email(), nil, nil)
		return &AuthResult{CaptchaSiteKey: resp.Captcha.SiteKey}, nil

	case resp.TwoFactor != nil:
		return e.handleTwoFactor(ctx, strategy, req, resp.TwoFactor)

	case resp.Success != nil:
		return e.finalizeSuccess(ctx, strategy, resp.Success, continuation)

	default:
		return nil, e.exchangeFailed(ctx, strategy, ErrAuthenticationRejected, continuation)
	}
}

// exchangeFailed normalizes an exchange error, records the failed attempt
// against the throttle, and tears the strategy down unless a continuation
// should stay retryable.
func (e *Engine) exchangeFailed(ctx context.Context, strategy credentialStrategy, err error, continuation bool) error {
	if !errors.Is(err, ErrAuthenticationRejected) {
		err = fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	if errors.Is(err, ErrAuthenticationRejected) {
		e.incrementRateLimit(ctx, strategy.email())
	}

	if continuation {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, "", strategy.email(), err, nil)
		// The attempt stays armed; the user may retry within the window.
		return err
	}

	strategy.destroy()
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", strategy.email(), err, nil)
	return err
}

// handleTwoFactor arms a continuation for the challenge and fires the email
// side effect when the server offers only implicit delivery.
func (e *Engine) handleTwoFactor(ctx context.Context, strategy credentialStrategy, req *TokenRequest, challenge *IdentityTwoFactorPayload) (*AuthResult, error) {
	strategy.capturePolicies(challenge.MasterPasswordPolicies)

	e.mu.Lock()
	alreadySent := e.attempt != nil && e.attempt.strategy == strategy && e.attempt.emailSent
	e.mu.Unlock()

	attempt := &inProgressAttempt{
		strategy:      strategy,
		request:       req,
		emailSent:     alreadySent,
		captchaBypass: challenge.CaptchaToken,
	}

	// Send the emailed code once per attempt, and only when the caller did
	// not already supply a two-factor token, email is among the offered
	// providers, and the strategy knows the server hash the endpoint wants.
	if req.TwoFactor == nil && !alreadySent && strategy.serverAuthHash() != "" {
		if _, ok := challenge.Providers[TwoFactorEmail]; ok {
			if err := e.identity.SendTwoFactorEmail(ctx, strategy.email(), strategy.serverAuthHash()); err != nil {
				warnf("two-factor email send failed: %v", err)
			} else {
				attempt.emailSent = true
				e.metricInc(MetricTwoFactorEmailSent)
				e.emitAudit(ctx, auditEventTwoFactorEmailSent, true, "", strategy.email(), nil, nil)
			}
		}
	}

	e.armAttempt(attempt)

	e.metricInc(MetricTwoFactorRequired)
	e.emitAudit(ctx, auditEventTwoFactorRequired, false, "", strategy.email(), nil, func() map[string]string {
		return map[string]string{"providers": strconv.Itoa(len(challenge.Providers))}
	})

	return &AuthResult{TwoFactorProviders: challenge.Providers}, nil
}

// finalizeSuccess turns a success payload into a stored session.
func (e *Engine) finalizeSuccess(ctx context.Context, strategy credentialStrategy, payload *IdentityTokenPayload, continuation bool) (*AuthResult, error) {
	strategy.capturePolicies(payload.MasterPasswordPolicies)

	secrets, err := strategy.finalize(ctx, payload)
	if err != nil {
		strategy.destroy()
		if continuation {
			e.clearAttemptRef(strategy)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", strategy.email(), err, nil)
		return nil, err
	}

	claims, err := decodeIdentityToken(payload.AccessToken)
	if err != nil {
		strategy.destroy()
		if continuation {
			e.clearAttemptRef(strategy)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", strategy.email(), err, nil)
		return nil, err
	}

	email := strategy.email()
	if email == "" {
		email = claims.Email
	}

	result := &AuthResult{
		Tokens: &SessionTokens{
			AccessToken:  payload.AccessToken,
			RefreshToken: payload.RefreshToken,
			ExpiresIn:    payload.ExpiresIn,
		},
		AccountID:           claims.Subject,
		Email:               email,
		ResetMasterPassword: payload.ResetMasterPassword,
	}

	if payload.ForcePasswordReset {
		result.ForcePasswordReset = true
		result.ForceResetReason = ForceResetAdmin
	} else if reset := strategy.resetOptions(); reset != nil {
		result.ForcePasswordReset = true
		result.ForceResetReason = reset.reason
		result.ForcingOrgID = reset.forcingOrgID
		result.FailingPolicies = reset.failingPolicies
	}

	session := &SessionState{
		AccountID:          result.AccountID,
		Email:              email,
		Tokens:             *result.Tokens,
		LocalAuthHash:      secrets.localHash,
		ForcePasswordReset: result.ForcePasswordReset,
		ForceResetReason:   result.ForceResetReason,
		ForcingOrgID:       result.ForcingOrgID,
		FailingPolicies:    result.FailingPolicies,
		CreatedAt:          e.now(),
		userKey:            secrets.userKey,
	}
	e.storeSession(session)

	e.resetRateLimit(ctx, email)

	if continuation {
		e.clearAttemptRef(strategy)
		e.metricInc(MetricTwoFactorSuccess)
		e.emitAudit(ctx, auditEventTwoFactorSuccess, true, result.AccountID, email, nil, nil)
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, result.AccountID, email, nil, nil)

	if result.ForcePasswordReset {
		e.metricInc(MetricForcedReset)
		e.emitAudit(ctx, auditEventForcedReset, true, result.AccountID, email, nil, func() map[string]string {
			return map[string]string{
				"reason": strconv.Itoa(int(result.ForceResetReason)),
				"org":    result.ForcingOrgID,
			}
		})
	}

	strategy.destroy()
	return result, nil
}

// clearAttemptRef drops the armed attempt only if it still belongs to the
// given strategy, so a concurrent fresh Login is not clobbered.
func (e *Engine) clearAttemptRef(strategy credentialStrategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempt != nil && e.attempt.strategy == strategy {
		e.attempt = nil
	}
}

func (e *Engine) checkRateLimit(ctx context.Context, email string) error {
	if e.rateLimiter == nil || email == "" {
		return nil
	}

	err := e.rateLimiter.CheckLogin(ctx, email, clientIPFromContext(ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ErrLoginRateLimited, nil)
		return ErrLoginRateLimited
	}

	// Redis being down must not lock everyone out.
	warnf("rate limit check failed: %v", err)
	return nil
}

func (e *Engine) incrementRateLimit(ctx context.Context, email string) {
	if e.rateLimiter == nil || email == "" {
		return
	}
	if err := e.rateLimiter.IncrementLogin(ctx, email, clientIPFromContext(ctx)); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		warnf("rate limit increment failed: %v", err)
	}
}

func (e *Engine) resetRateLimit(ctx context.Context, email string) {
	if e.rateLimiter == nil || email == "" {
		return
	}
	if err := e.rateLimiter.ResetLogin(ctx, email, clientIPFromContext(ctx)); err != nil {
		warnf("rate limit reset failed: %v", err)
	}
}
