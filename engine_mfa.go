package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/internal/stores"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// VerifyLoginMFA describes the verifyloginmfa operation and its observable behavior.
//
// The challenge token must carry the verify step. Wrong codes burn one
// attempt from the challenge budget and stay retryable; an exhausted budget,
// an expired token, or a replayed challenge all surface as an expired
// challenge so the caller restarts from login.
//
// VerifyLoginMFA may return an error when input validation, dependency calls, or security checks fail.
// VerifyLoginMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyLoginMFA(ctx context.Context, challengeToken, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.verifyChallengeStep(ctx, challengeToken, token.StepVerify)
	if err != nil {
		return nil, err
	}

	acct, err := e.challengeAccount(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !acct.MFAEnabled || len(acct.MFASecret) == 0 {
		e.emitAudit(ctx, auditEventMFAVerify, false, acct.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	counter, err := e.checkCode(ctx, claims.ChallengeID, acct.ID, acct.MFASecret, acct.MFALastCounter, code, auditEventMFAVerify)
	if err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	consumed, err := e.challenges.Consume(sctx, claims.ChallengeID)
	if err == nil && consumed {
		err = e.accounts.SetMFALastCounter(sctx, acct.ID, uint64(counter))
	}
	cancel()
	if err != nil {
		return nil, err
	}
	if !consumed {
		// concurrent use of the same challenge
		e.emitAudit(ctx, auditEventMFAVerify, false, acct.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	result, sess, err := e.issueSession(ctx, acct, true)
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, auditEventMFAVerify, true, acct.ID, sess.ID, nil, nil)
	return result, nil
}

// BeginEnrollment describes the beginenrollment operation and its observable behavior.
//
// Exchanges an enroll challenge for a generated TOTP secret and a fresh
// enroll-verify challenge. The secret travels only inside the signed
// challenge token and in the returned provisioning material; nothing is
// persisted until ConfirmEnrollment.
//
// BeginEnrollment may return an error when input validation, dependency calls, or security checks fail.
// BeginEnrollment does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BeginEnrollment(ctx context.Context, challengeToken string) (*EnrollmentSetup, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.verifyChallengeStep(ctx, challengeToken, token.StepEnroll)
	if err != nil {
		return nil, err
	}

	acct, err := e.challengeAccount(ctx, claims)
	if err != nil {
		return nil, err
	}
	if acct.MFAEnabled {
		e.emitAudit(ctx, auditEventMFAEnrollBegin, false, acct.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	_, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	nextID := uuid.NewString()
	nextChallenge, err := e.codec.MintChallenge(nextID, acct.ID, token.StepEnrollVerify, secretBase32)
	if err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	record := &stores.Challenge{
		AccountID: acct.ID,
		Step:      string(token.StepEnrollVerify),
		ExpiresAt: challengeExpiry(e.challengeTTL()),
	}
	if err := e.challenges.Save(sctx, nextID, record, e.challengeTTL()); err != nil {
		return nil, err
	}
	if _, err := e.challenges.Consume(sctx, claims.ChallengeID); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventMFAEnrollBegin, true, acct.ID, "", nil, nil)

	return &EnrollmentSetup{
		Challenge:    nextChallenge,
		SecretBase32: secretBase32,
		ProvisionURI: e.totp.ProvisionURI(secretBase32, acct.Email),
	}, nil
}

// ConfirmEnrollment describes the confirmenrollment operation and its observable behavior.
//
// A correct code against the pending secret persists the enrollment, bumps
// the token version, revokes every existing refresh family, and issues a
// fully verified session. MFA state changes always cut off older sessions.
//
// ConfirmEnrollment may return an error when input validation, dependency calls, or security checks fail.
// ConfirmEnrollment does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmEnrollment(ctx context.Context, challengeToken, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.verifyChallengeStep(ctx, challengeToken, token.StepEnrollVerify)
	if err != nil {
		return nil, err
	}
	if claims.PendingSecret == "" {
		return nil, ErrChallengeExpired
	}

	acct, err := e.challengeAccount(ctx, claims)
	if err != nil {
		return nil, err
	}

	pending, err := e.totp.DecodeSecret(claims.PendingSecret)
	if err != nil {
		e.emitAudit(ctx, auditEventMFAEnrollConfirm, false, acct.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	counter, err := e.checkCode(ctx, claims.ChallengeID, acct.ID, pending, 0, code, auditEventMFAEnrollConfirm)
	if err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	consumed, err := e.challenges.Consume(sctx, claims.ChallengeID)
	cancel()
	if err != nil {
		return nil, err
	}
	if !consumed {
		e.emitAudit(ctx, auditEventMFAEnrollConfirm, false, acct.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.accounts.SaveMFASecret(sctx, acct.ID, pending)
	if err == nil {
		err = e.accounts.SetMFALastCounter(sctx, acct.ID, uint64(counter))
	}
	cancel()
	if err != nil {
		return nil, err
	}

	version, err := e.revokeAllSessions(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	acct.TokenVersion = version
	acct.MFAEnabled = true
	acct.MFASecret = pending

	result, sess, err := e.issueSession(ctx, acct, true)
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, auditEventMFAEnrollConfirm, true, acct.ID, sess.ID, nil, nil)
	return result, nil
}

func (e *Engine) verifyChallengeStep(ctx context.Context, challengeToken string, step token.ChallengeStep) (*token.ChallengeClaims, error) {
	claims, err := e.codec.VerifyChallenge(challengeToken)
	if err != nil {
		return nil, ErrChallengeExpired
	}
	if claims.Step != step {
		return nil, ErrChallengeExpired
	}

	sctx, cancel := e.storeCtx(ctx)
	record, err := e.challenges.Get(sctx, claims.ChallengeID)
	cancel()
	if err != nil {
		if errors.Is(err, stores.ErrChallengeNotFound) || errors.Is(err, stores.ErrChallengeExpired) {
			return nil, ErrChallengeExpired
		}
		return nil, err
	}
	if record.AccountID != claims.AccountID || record.Step != string(step) {
		return nil, ErrChallengeExpired
	}

	return claims, nil
}

func (e *Engine) challengeAccount(ctx context.Context, claims *token.ChallengeClaims) (*accounts.Account, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	acct, err := e.accounts.GetByID(sctx, claims.AccountID)
	if err != nil {
		return nil, ErrChallengeExpired
	}
	if !acct.Active() {
		return nil, ErrAccountBlocked
	}
	return acct, nil
}

// checkCode verifies a TOTP code against the given secret, charging the
// challenge attempt budget on failure and enforcing counter replay.
func (e *Engine) checkCode(ctx context.Context, challengeID, accountID string, secret []byte, lastCounter uint64, code, auditType string) (int64, error) {
	ok, counter, err := e.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return 0, err
	}
	if ok && uint64(counter) <= lastCounter && lastCounter > 0 {
		// code from an already-consumed time step
		ok = false
	}
	if ok {
		return counter, nil
	}

	sctx, cancel := e.storeCtx(ctx)
	exceeded, recErr := e.challenges.RecordFailure(sctx, challengeID, e.config.MFA.MaxAttempts)
	cancel()
	if recErr != nil {
		if errors.Is(recErr, stores.ErrChallengeNotFound) || errors.Is(recErr, stores.ErrChallengeExpired) {
			return 0, ErrChallengeExpired
		}
		return 0, recErr
	}
	if exceeded {
		e.emitAudit(ctx, auditType, false, accountID, "", ErrChallengeExpired, func() map[string]string {
			return map[string]string{"reason": "attempts_exceeded"}
		})
		return 0, ErrChallengeExpired
	}

	e.emitAudit(ctx, auditType, false, accountID, "", ErrInvalidCode, nil)
	return 0, ErrInvalidCode
}
