package authcore

import (
	"context"
	"time"
)

const (
	auditEventLogin             = "login"
	auditEventLoginMFARequired  = "login_mfa_required"
	auditEventMFAVerify         = "mfa_verify"
	auditEventMFAEnrollBegin    = "mfa_enroll_begin"
	auditEventMFAEnrollConfirm  = "mfa_enroll_confirm"
	auditEventRefresh           = "refresh"
	auditEventRefreshReuse      = "refresh_reuse_detected"
	auditEventLogout            = "logout"
	auditEventLogoutAll         = "logout_all"
	auditEventAccountCreate     = "account_create"
	auditEventPasswordChange    = "password_change"
	auditEventPasswordResetReq  = "password_reset_request"
	auditEventPasswordResetDone = "password_reset_confirm"
	auditEventRateLimited       = "rate_limited"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	sessionID string,
	opErr error,
	metadata func() map[string]string,
) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
