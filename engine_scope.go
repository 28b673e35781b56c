package authcore

import (
	"context"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/scope"
)

// Authorize describes the authorize operation and its observable behavior.
//
// Capability check for the request: administrators pass everything,
// sub-administrators and seller assistants must hold every required grant in
// their vocabulary, sellers implicitly hold the assistant vocabulary for
// their own shop, shoppers only pass unguarded endpoints. The admin-MFA gate
// runs first and is orthogonal to grants: an admin-ish identity without a
// verified factor is rejected regardless of permissions.
//
// Authorize may return an error when input validation, dependency calls, or security checks fail.
// Authorize does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authorize(ctx context.Context, identity *Identity, required ...string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if identity == nil || identity.Account == nil || identity.Claims == nil {
		return ErrUnauthorized
	}

	if e.config.Security.RequireAdminMFA &&
		identity.Account.Role.AdminLike() &&
		!identity.Claims.MFAVerified {
		return ErrMFARequired
	}

	actor, err := e.buildActor(ctx, identity)
	if err != nil {
		return err
	}

	if actor.Authorize(required) {
		return nil
	}
	switch actor.Kind() {
	case scope.KindShopper:
		return ErrForbidden
	default:
		return ErrInsufficientPermissions
	}
}

// ResolveSellerScope describes the resolvesellerscope operation and its observable behavior.
//
// Answers which seller's data the request operates on. Sellers resolve to
// themselves; assistants resolve through their attachment, failing with a
// scope error when the link points at a missing, demoted, unapproved, or
// blocked seller; administrators and sub-administrators must name an
// explicit target seller, validated as an approved active seller; shoppers
// have no seller scope.
//
// ResolveSellerScope may return an error when input validation, dependency calls, or security checks fail.
// ResolveSellerScope does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResolveSellerScope(ctx context.Context, identity *Identity, requestedSellerID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if identity == nil || identity.Account == nil {
		return "", ErrUnauthorized
	}

	switch identity.Account.Role {
	case accounts.RoleAdministrator, accounts.RoleSubAdministrator:
		if requestedSellerID == "" {
			return "", ErrScopeUnavailable
		}
		sctx, cancel := e.storeCtx(ctx)
		target, err := e.accounts.GetByID(sctx, requestedSellerID)
		cancel()
		if err != nil {
			return "", ErrScopeUnavailable
		}
		if target.Role != accounts.RoleSeller || !target.Approved || !target.Active() {
			return "", ErrScopeUnavailable
		}
		return target.ID, nil

	case accounts.RoleSeller:
		if requestedSellerID != "" && requestedSellerID != identity.Account.ID {
			return "", ErrForbidden
		}
		return identity.Account.ID, nil

	case accounts.RoleSellerAssistant:
		actor, err := e.buildActor(ctx, identity)
		if err != nil {
			return "", err
		}
		sellerID, ok := actor.Scope()
		if !ok {
			return "", ErrScopeUnavailable
		}
		if requestedSellerID != "" && requestedSellerID != sellerID {
			return "", ErrForbidden
		}
		return sellerID, nil

	default:
		return "", ErrForbidden
	}
}

// buildActor constructs the request's scope variant, loading the attached
// seller account for assistants.
func (e *Engine) buildActor(ctx context.Context, identity *Identity) (scope.Actor, error) {
	var attached *accounts.Account
	if identity.Account.Role == accounts.RoleSellerAssistant && identity.Account.AssistantOf != nil {
		sctx, cancel := e.storeCtx(ctx)
		seller, err := e.accounts.GetByID(sctx, *identity.Account.AssistantOf)
		cancel()
		if err == nil {
			attached = seller
		}
	}

	actor, err := scope.New(e.registry, identity.Account, attached)
	if err != nil {
		return nil, ErrForbidden
	}
	return actor, nil
}
