package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
)

func TestLoginIssuesTokenPair(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	result := env.login(t, acct.Email, "correct-horse-battery")

	if result.MFARequired {
		t.Fatal("shopper login must not require MFA")
	}
	if result.AccessToken == "" || result.RefreshSecret == "" {
		t.Fatal("expected a full token pair")
	}

	identity, err := env.engine.Authenticate(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("minted access token failed authentication: %v", err)
	}
	if identity.Account.ID != acct.ID {
		t.Fatalf("identity resolved to %q, want %q", identity.Account.ID, acct.ID)
	}
	if identity.Claims.MFAVerified {
		t.Fatal("shopper session must not carry a verified factor claim")
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	result := env.login(t, "  "+acct.Email+"  ", "correct-horse-battery")
	if result.AccessToken == "" {
		t.Fatal("expected login to succeed with padded email")
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)

	_, unknownErr := env.engine.Login(ctx, "nobody@example.com", "whatever-password")
	_, wrongErr := env.engine.Login(ctx, acct.Email, "not-the-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", wrongErr)
	}
	// both failures must be the same sentinel, never a lookup error
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure shapes differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	env := newTestEnv(t, nil)

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", func(a *accounts.Account) {
		a.Status = accounts.StatusBlocked
	})

	_, err := env.engine.Login(context.Background(), acct.Email, "correct-horse-battery")
	if !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
}

func TestLoginEnrolledAccountReturnsVerifyChallenge(t *testing.T) {
	env := newTestEnv(t, nil)

	acct := env.seedAccount(t, accounts.RoleShopper, "correct-horse-battery", nil)
	env.enrollMFA(t, acct.ID)

	result := env.login(t, acct.Email, "correct-horse-battery")
	if !result.MFARequired || result.MFAStep != MFAStepVerify {
		t.Fatalf("expected a verify challenge, got %+v", result)
	}
	if result.AccessToken != "" || result.RefreshSecret != "" {
		t.Fatal("no tokens may be issued before the factor clears")
	}
	if result.MFAChallenge == "" {
		t.Fatal("expected a challenge token")
	}
}

func TestLoginAdminWithoutEnrollmentGetsEnrollChallenge(t *testing.T) {
	env := newTestEnv(t, nil)

	acct := env.seedAccount(t, accounts.RoleAdministrator, "correct-horse-battery", nil)

	result := env.login(t, acct.Email, "correct-horse-battery")
	if !result.MFARequired || result.MFAStep != MFAStepEnroll {
		t.Fatalf("expected an enroll challenge, got %+v", result)
	}
}

func TestLoginAdminGraceMode(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.MFA.AllowUnenrolledAdmin = true
	})
	ctx := context.Background()

	acct := env.seedAccount(t, accounts.RoleSubAdministrator, "correct-horse-battery", func(a *accounts.Account) {
		a.Permissions = []string{"users.block"}
	})

	result := env.login(t, acct.Email, "correct-horse-battery")
	if result.MFARequired {
		t.Fatal("grace mode must issue a session without a challenge")
	}

	identity, err := env.engine.Authenticate(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("grace session token rejected: %v", err)
	}

	// the session exists but admin-gated calls stay blocked
	err = env.engine.Authorize(ctx, identity, "users.block")
	if !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected ErrMFARequired on a grace session, got %v", err)
	}
}
