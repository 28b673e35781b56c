package authcore

import (
	"context"
	"errors"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Rotation is atomic at the ledger: exactly one of any number of concurrent
// presentations of the same secret wins. Reuse of a retired secret revokes
// the whole family and is reported to the caller as an unknown session so
// the response does not distinguish theft detection from a bogus secret.
//
// The session and account are resolved before the rotation commits. Every
// call that can fail transiently happens while the presented secret is still
// live, so a timed-out store call leaves the secret usable for a retry
// instead of burning the family through reuse detection.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshSecret string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.allow(ctx, "refresh", clientIPFromContext(ctx)); err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	sess, err := e.ledger.FindBySecret(sctx, refreshSecret)
	cancel()
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			e.emitAudit(ctx, auditEventRefresh, false, "", "", err, nil)
		}
		return nil, err
	}

	sctx, cancel = e.storeCtx(ctx)
	acct, err := e.accounts.GetByID(sctx, sess.AccountID)
	cancel()
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			e.emitAudit(ctx, auditEventRefresh, false, "", sess.ID, err, nil)
			return nil, ErrUnknownSession
		}
		return nil, err
	}
	if !acct.Active() {
		sctx, cancel = e.storeCtx(ctx)
		_ = e.ledger.RevokeFamily(sctx, sess.FamilyID)
		cancel()
		e.emitAudit(ctx, auditEventRefresh, false, acct.ID, sess.ID, ErrAccountBlocked, nil)
		return nil, ErrAccountBlocked
	}

	sctx, cancel = e.storeCtx(ctx)
	secret, next, err := e.ledger.Rotate(sctx, refreshSecret, e.config.Session.RefreshTTL, e.sessionMeta(ctx, false))
	cancel()
	if err != nil {
		if errors.Is(err, ErrSessionReuseDetected) {
			e.emitAudit(ctx, auditEventRefreshReuse, false, acct.ID, sess.ID, err, nil)
			return nil, ErrUnknownSession
		}
		if errors.Is(err, ErrUnknownSession) || errors.Is(err, ErrExpiredSession) {
			e.emitAudit(ctx, auditEventRefresh, false, acct.ID, sess.ID, err, nil)
			return nil, err
		}
		return nil, err
	}

	access, err := e.codec.MintAccess(acct.ID, string(acct.Role), acct.TokenVersion, next.MFAVerified)
	if err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventRefresh, true, acct.ID, next.ID, nil, nil)
	return &LoginResult{
		AccessToken:   access,
		RefreshSecret: secret,
	}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Revokes the whole refresh family behind the presented secret. Idempotent:
// an unknown secret is a no-op, not an error.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, refreshSecret string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	sess, err := e.ledger.FindBySecret(sctx, refreshSecret)
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			return nil
		}
		return err
	}
	if err := e.ledger.RevokeFamily(sctx, sess.FamilyID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventLogout, true, sess.AccountID, sess.ID, nil, nil)
	return nil
}

// LogoutAll describes the logoutall operation and its observable behavior.
//
// Bumps the account's token version and revokes every refresh family, so
// both outstanding access tokens and refresh secrets die together.
//
// LogoutAll may return an error when input validation, dependency calls, or security checks fail.
// LogoutAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutAll(ctx context.Context, accountID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if _, err := e.revokeAllSessions(ctx, accountID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventLogoutAll, true, accountID, "", nil, nil)
	return nil
}
