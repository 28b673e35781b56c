package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
)

// CreateAccount describes the createaccount operation and its observable behavior.
//
// Registers a new account. The zero role is a shopper; seller assistants must
// name an existing seller account. Administrator accounts are provisioned out
// of band and cannot be self-registered.
//
// CreateAccount may return an error when input validation, dependency calls, or security checks fail.
// CreateAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*accounts.Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if err := e.allow(ctx, "register", clientIPFromContext(ctx), email); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = accounts.RoleShopper
	}
	if !role.Valid() || role == accounts.RoleAdministrator {
		return nil, ErrAccountRoleInvalid
	}

	var assistantOf *string
	if role == accounts.RoleSellerAssistant {
		if req.AssistantOf == "" {
			return nil, ErrAccountRoleInvalid
		}
		sctx, cancel := e.storeCtx(ctx)
		seller, err := e.accounts.GetByID(sctx, req.AssistantOf)
		cancel()
		if err != nil || seller.Role != accounts.RoleSeller {
			return nil, ErrAccountRoleInvalid
		}
		assistantOf = &seller.ID
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, ErrPasswordPolicy
	}

	sctx, cancel := e.storeCtx(ctx)
	_, err = e.accounts.GetByEmail(sctx, email)
	cancel()
	if err == nil {
		e.emitAudit(ctx, auditEventAccountCreate, false, "", "", ErrAccountExists, nil)
		return nil, ErrAccountExists
	}
	if !errors.Is(err, accounts.ErrNotFound) {
		return nil, err
	}

	acct := &accounts.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AssistantOf:  assistantOf,
		Status:       accounts.StatusActive,
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.accounts.Create(sctx, acct)
	cancel()
	if err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	e.emitAudit(ctx, auditEventAccountCreate, true, acct.ID, "", nil, func() map[string]string {
		return map[string]string{"role": string(role)}
	})
	return acct, nil
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// Requires the current password, rejects reuse, and then bumps the token
// version and revokes every refresh family: a credential change always ends
// all other sessions.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	sctx, cancel := e.storeCtx(ctx)
	acct, err := e.accounts.GetByID(sctx, accountID)
	cancel()
	if err != nil {
		return ErrUnauthorized
	}
	if !acct.Active() {
		return ErrAccountBlocked
	}

	ok, err := e.hasher.Verify(oldPassword, acct.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, auditEventPasswordChange, false, acct.ID, "", ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return ErrPasswordPolicy
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.accounts.UpdatePasswordHash(sctx, acct.ID, hash)
	cancel()
	if err != nil {
		return err
	}

	if _, err := e.revokeAllSessions(ctx, acct.ID); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventPasswordChange, true, acct.ID, "", nil, nil)
	return nil
}
