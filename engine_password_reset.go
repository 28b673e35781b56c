package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// Returns an opaque single-use token for delivery out of band. The response
// shape is identical whether or not the email is registered: an unknown
// address yields an empty token and no error, never a lookup failure.
//
// RequestPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.PasswordReset.Enabled {
		return "", ErrResetDisabled
	}

	email = normalizeEmail(email)
	if err := e.allow(ctx, "forgot_password", clientIPFromContext(ctx), email); err != nil {
		return "", err
	}

	sctx, cancel := e.storeCtx(ctx)
	acct, err := e.accounts.GetByEmail(sctx, email)
	cancel()
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetReq, true, "", "", nil, nil)
		return "", nil
	}

	secret, err := token.NewOpaqueSecret()
	if err != nil {
		return "", err
	}

	record := &accounts.PasswordResetToken{
		ID:         uuid.NewString(),
		AccountID:  acct.ID,
		SecretHash: token.Hash(secret),
		ExpiresAt:  time.Now().Add(e.config.PasswordReset.ResetTTL),
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.accounts.CreateResetToken(sctx, record)
	cancel()
	if err != nil {
		return "", err
	}

	e.emitAudit(ctx, auditEventPasswordResetReq, true, acct.ID, "", nil, nil)
	return secret, nil
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
//
// Consumes the token exactly once, sets the new password, bumps the token
// version, and revokes every refresh family including any grace-mode
// sessions. Expired, used, and unknown tokens are indistinguishable.
//
// ConfirmPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// ConfirmPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if !e.config.PasswordReset.Enabled {
		return ErrResetDisabled
	}
	if err := e.allow(ctx, "reset_password", clientIPFromContext(ctx)); err != nil {
		return err
	}

	sctx, cancel := e.storeCtx(ctx)
	record, err := e.accounts.FindResetToken(sctx, token.Hash(resetToken))
	cancel()
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return ErrResetInvalid
		}
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return ErrPasswordPolicy
	}

	sctx, cancel = e.storeCtx(ctx)
	consumed, err := e.accounts.ConsumeResetToken(sctx, record.ID)
	cancel()
	if err != nil {
		return err
	}
	if !consumed {
		e.emitAudit(ctx, auditEventPasswordResetDone, false, record.AccountID, "", ErrResetInvalid, nil)
		return ErrResetInvalid
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.accounts.UpdatePasswordHash(sctx, record.AccountID, hash)
	cancel()
	if err != nil {
		return err
	}

	if _, err := e.revokeAllSessions(ctx, record.AccountID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventPasswordResetDone, true, record.AccountID, "", nil, nil)
	return nil
}
