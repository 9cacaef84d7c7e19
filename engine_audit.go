package loginkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventCaptchaRequired    = "captcha_required"
	auditEventTwoFactorRequired  = "two_factor_required"
	auditEventTwoFactorSuccess   = "two_factor_success"
	auditEventTwoFactorFailure   = "two_factor_failure"
	auditEventTwoFactorEmailSent = "two_factor_email_sent"
	auditEventSessionExpired     = "session_expired"
	auditEventForcedReset        = "forced_password_reset"
	auditEventLogout             = "logout"
	auditEventLock               = "lock"
)

// AuditErrorCode is the normalized error tag carried on audit events.
type AuditErrorCode string

const (
	auditErrInvalidFormat   AuditErrorCode = "invalid_credential_format"
	auditErrRejected        AuditErrorCode = "authentication_rejected"
	auditErrNetwork         AuditErrorCode = "network_failure"
	auditErrSessionExpired  AuditErrorCode = "session_expired"
	auditErrDecryption      AuditErrorCode = "decryption_failed"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrPreloginBackend AuditErrorCode = "prelogin_unavailable"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentialFormat):
		return auditErrInvalidFormat
	case errors.Is(err, ErrAuthenticationRejected):
		return auditErrRejected
	case errors.Is(err, ErrNetworkFailure):
		return auditErrNetwork
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrDecryption):
		return auditErrDecryption
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPreloginUnavailable):
		return auditErrPreloginBackend
	default:
		return auditErrInternal
	}
}
