package authcore

import (
	"context"

	"github.com/google/uuid"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/internal/stores"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// Login describes the login operation and its observable behavior.
//
// A successful credential check either issues a token pair right away or,
// when the account must clear a second factor first, returns a pending result
// with an MFA challenge token. Failures never reveal whether the email is
// registered.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, passwordPlain string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if err := e.allow(ctx, "login", clientIPFromContext(ctx), email); err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	acct, err := e.accounts.GetByEmail(sctx, email)
	cancel()
	if err != nil {
		e.emitAudit(ctx, auditEventLogin, false, "", "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(passwordPlain, acct.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, auditEventLogin, false, acct.ID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if !acct.Active() {
		e.emitAudit(ctx, auditEventLogin, false, acct.ID, "", ErrAccountBlocked, nil)
		return nil, ErrAccountBlocked
	}

	e.maybeUpgradeHash(ctx, acct, passwordPlain)

	switch {
	case acct.MFAEnabled && len(acct.MFASecret) > 0:
		return e.pendingChallenge(ctx, acct, token.StepVerify)
	case e.roleRequiresMFA(acct.Role):
		if e.config.MFA.AllowUnenrolledAdmin {
			// grace mode: session without the mfa claim; admin-gated calls
			// stay blocked until enrollment
			result, sess, err := e.issueSession(ctx, acct, false)
			if err != nil {
				return nil, err
			}
			e.emitAudit(ctx, auditEventLogin, true, acct.ID, sess.ID, nil, func() map[string]string {
				return map[string]string{"mfa": "grace"}
			})
			return result, nil
		}
		return e.pendingChallenge(ctx, acct, token.StepEnroll)
	}

	result, sess, err := e.issueSession(ctx, acct, false)
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, auditEventLogin, true, acct.ID, sess.ID, nil, nil)
	return result, nil
}

func (e *Engine) pendingChallenge(ctx context.Context, acct *accounts.Account, step token.ChallengeStep) (*LoginResult, error) {
	challengeID := uuid.NewString()

	challenge, err := e.codec.MintChallenge(challengeID, acct.ID, step, "")
	if err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	record := &stores.Challenge{
		AccountID: acct.ID,
		Step:      string(step),
		ExpiresAt: challengeExpiry(e.challengeTTL()),
	}
	if err := e.challenges.Save(sctx, challengeID, record, e.challengeTTL()); err != nil {
		return nil, err
	}

	mfaStep := MFAStepVerify
	if step == token.StepEnroll {
		mfaStep = MFAStepEnroll
	}
	e.emitAudit(ctx, auditEventLoginMFARequired, true, acct.ID, "", nil, func() map[string]string {
		return map[string]string{"step": string(mfaStep)}
	})

	return &LoginResult{
		MFARequired:  true,
		MFAStep:      mfaStep,
		MFAChallenge: challenge,
	}, nil
}

func (e *Engine) maybeUpgradeHash(ctx context.Context, acct *accounts.Account, passwordPlain string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	needs, err := e.hasher.NeedsUpgrade(acct.PasswordHash)
	if err != nil || !needs {
		return
	}
	rehashed, err := e.hasher.Hash(passwordPlain)
	if err != nil {
		return
	}
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	if err := e.accounts.UpdatePasswordHash(sctx, acct.ID, rehashed); err != nil {
		e.warn("password hash upgrade failed", "account", acct.ID, "err", err)
		return
	}
	acct.PasswordHash = rehashed
}
