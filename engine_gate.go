package authcore

import (
	"context"
)

// Authenticate describes the authenticate operation and its observable behavior.
//
// Verifies the bearer access token, loads the account, and enforces the
// token-version and status gates. The returned Identity is the input to
// Authorize and ResolveSellerScope.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	acct, err := e.accounts.GetByID(sctx, claims.AccountID)
	cancel()
	if err != nil {
		return nil, ErrUnauthorized
	}

	if claims.TokenVersion != acct.TokenVersion {
		return nil, ErrTokenRevoked
	}
	if !acct.Active() {
		return nil, ErrAccountBlocked
	}
	if string(acct.Role) != claims.Role {
		// role changed since the token was minted
		return nil, ErrTokenRevoked
	}

	return &Identity{Account: acct, Claims: claims}, nil
}

// AuthenticateOptional describes the authenticateoptional operation and its observable behavior.
//
// Anonymous personalization entry point: an empty or invalid token yields a
// nil identity and no error. Revoked and blocked results still fail so a
// cut-off caller cannot keep browsing as if logged in.
//
// AuthenticateOptional may return an error when input validation, dependency calls, or security checks fail.
// AuthenticateOptional does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuthenticateOptional(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, nil
	}

	identity, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		switch err {
		case ErrTokenRevoked, ErrAccountBlocked:
			return nil, err
		default:
			return nil, nil
		}
	}
	return identity, nil
}
