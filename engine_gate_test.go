package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
)

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.engine.Authenticate(ctx, "garbage"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}

	// a token minted under a different key
	foreign := newTestEnv(t, func(cfg *Config) {
		cfg.Token.AccessSecret = []byte("other-access-secret-0123456789ab")
	})
	acct := foreign.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	result := foreign.login(t, acct.Email, "correct-horse-battery")

	if _, err := env.engine.Authenticate(ctx, result.AccessToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestAuthenticateRoleChangeInvalidatesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	result := env.login(t, acct.Email, "correct-horse-battery")

	// promote the account after the token was minted
	if err := env.db.Model(&accounts.Account{}).Where("id = ?", acct.ID).
		Update("role", accounts.RoleSeller).Error; err != nil {
		t.Fatalf("role update failed: %v", err)
	}

	if _, err := env.engine.Authenticate(ctx, result.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after a role change, got %v", err)
	}
}

func TestAuthenticateOptional(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// anonymous and invalid tokens pass through with no identity
	identity, err := env.engine.AuthenticateOptional(ctx, "")
	if err != nil || identity != nil {
		t.Fatalf("expected anonymous pass-through, got %v %v", identity, err)
	}
	identity, err = env.engine.AuthenticateOptional(ctx, "garbage")
	if err != nil || identity != nil {
		t.Fatalf("expected invalid-token pass-through, got %v %v", identity, err)
	}

	// revoked tokens still fail hard
	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	result := env.login(t, acct.Email, "correct-horse-battery")
	if err := env.engine.LogoutAll(ctx, acct.ID); err != nil {
		t.Fatalf("logout-all failed: %v", err)
	}
	_, err = env.engine.AuthenticateOptional(ctx, result.AccessToken)
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestAuthorizeVocabularies(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	subAdmin := env.seedAccount(t, accounts.RoleSubAdministrator, "correct-horse-battery", func(a *accounts.Account) {
		a.Permissions = []string{"users.block"}
	})
	identity := testIdentity(subAdmin, true)

	if err := env.engine.Authorize(ctx, identity, "users.block"); err != nil {
		t.Fatalf("granted capability denied: %v", err)
	}
	if err := env.engine.Authorize(ctx, identity, "sellers.approve"); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("expected ErrInsufficientPermissions, got %v", err)
	}
	// assistant vocabulary never authorizes a sub-administrator
	if err := env.engine.Authorize(ctx, identity, "products.manage"); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("expected ErrInsufficientPermissions, got %v", err)
	}
}

func TestAuthorizeShopperAndAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	shopper := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	if err := env.engine.Authorize(ctx, testIdentity(shopper, false)); err != nil {
		t.Fatalf("shopper denied an unguarded endpoint: %v", err)
	}
	if err := env.engine.Authorize(ctx, testIdentity(shopper, false), "orders.view"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	admin := env.seedAccount(t, accounts.RoleAdministrator, "correct-horse-battery", nil)
	if err := env.engine.Authorize(ctx, testIdentity(admin, true), "users.block", "sellers.approve"); err != nil {
		t.Fatalf("administrator denied: %v", err)
	}
	// without a verified factor the admin gate rejects before grants
	if err := env.engine.Authorize(ctx, testIdentity(admin, false), "users.block"); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected ErrMFARequired, got %v", err)
	}

	if err := env.engine.Authorize(ctx, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a nil identity, got %v", err)
	}
}

func TestSellerImplicitVocabulary(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	seller := env.seedAccount(t, accounts.RoleSeller, "correct-horse-battery", func(a *accounts.Account) {
		a.Approved = true
	})
	identity := testIdentity(seller, false)

	if err := env.engine.Authorize(ctx, identity, "products.manage", "orders.view"); err != nil {
		t.Fatalf("seller denied the assistant vocabulary: %v", err)
	}
	if err := env.engine.Authorize(ctx, identity, "users.block"); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("expected ErrInsufficientPermissions, got %v", err)
	}
}

func TestResolveSellerScope(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	seller := env.seedAccount(t, accounts.RoleSeller, "correct-horse-battery", func(a *accounts.Account) {
		a.Approved = true
	})
	assistant := env.seedAccount(t, accounts.RoleSellerAssistant, "correct-horse-battery", func(a *accounts.Account) {
		a.AssistantOf = &seller.ID
		a.Permissions = []string{"orders.view"}
	})
	admin := env.seedAccount(t, accounts.RoleAdministrator, "correct-horse-battery", nil)
	shopper := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)

	// sellers resolve to themselves
	got, err := env.engine.ResolveSellerScope(ctx, testIdentity(seller, false), "")
	if err != nil || got != seller.ID {
		t.Fatalf("seller self-scope: got %q %v", got, err)
	}
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(seller, false), "someone-else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a mismatched target, got %v", err)
	}

	// assistants resolve through the attachment
	got, err = env.engine.ResolveSellerScope(ctx, testIdentity(assistant, false), "")
	if err != nil || got != seller.ID {
		t.Fatalf("assistant scope: got %q %v", got, err)
	}

	// administrators must name an explicit, valid target
	got, err = env.engine.ResolveSellerScope(ctx, testIdentity(admin, true), seller.ID)
	if err != nil || got != seller.ID {
		t.Fatalf("admin explicit scope: got %q %v", got, err)
	}
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(admin, true), ""); !errors.Is(err, ErrScopeUnavailable) {
		t.Fatalf("expected ErrScopeUnavailable without a target, got %v", err)
	}
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(admin, true), shopper.ID); !errors.Is(err, ErrScopeUnavailable) {
		t.Fatalf("expected ErrScopeUnavailable for a non-seller target, got %v", err)
	}

	// shoppers have no seller scope
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(shopper, false), ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAssistantScopeBreaksWithSeller(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	seller := env.seedAccount(t, accounts.RoleSeller, "correct-horse-battery", func(a *accounts.Account) {
		a.Approved = true
	})
	assistant := env.seedAccount(t, accounts.RoleSellerAssistant, "correct-horse-battery", func(a *accounts.Account) {
		a.AssistantOf = &seller.ID
	})

	// blocking the seller severs the assistant's scope
	if err := env.store.SetStatus(ctx, seller.ID, accounts.StatusBlocked); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(assistant, false), ""); !errors.Is(err, ErrScopeUnavailable) {
		t.Fatalf("expected ErrScopeUnavailable for a blocked seller, got %v", err)
	}

	// so does withdrawing approval
	if err := env.store.SetStatus(ctx, seller.ID, accounts.StatusActive); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if err := env.store.SetApproval(ctx, seller.ID, false); err != nil {
		t.Fatalf("approval withdrawal failed: %v", err)
	}
	if _, err := env.engine.ResolveSellerScope(ctx, testIdentity(assistant, false), ""); !errors.Is(err, ErrScopeUnavailable) {
		t.Fatalf("expected ErrScopeUnavailable for an unapproved seller, got %v", err)
	}
}
