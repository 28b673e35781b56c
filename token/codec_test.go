package token

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		AccessSecret:    []byte("0123456789abcdef0123456789abcdef"),
		ChallengeSecret: []byte("fedcba9876543210fedcba9876543210"),
		AccessTTL:       10 * time.Minute,
		ChallengeTTL:    5 * time.Minute,
		Issuer:          "authcore",
		Leeway:          30 * time.Second,
	}
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short access secret", func(c *Config) { c.AccessSecret = []byte("short") }},
		{"short challenge secret", func(c *Config) { c.ChallengeSecret = []byte("short") }},
		{"identical secrets", func(c *Config) { c.ChallengeSecret = c.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"zero challenge ttl", func(c *Config) { c.ChallengeTTL = 0 }},
		{"negative leeway", func(c *Config) { c.Leeway = -time.Second }},
		{"excessive leeway", func(c *Config) { c.Leeway = 5 * time.Minute }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewCodec(cfg); err == nil {
				t.Fatal("expected config rejection")
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	tokenStr, err := codec.MintAccess("acct-1", "seller", 3, true)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}

	claims, err := codec.VerifyAccess(tokenStr)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.AccountID != "acct-1" || claims.Role != "seller" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenVersion != 3 || !claims.MFAVerified {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyAccessClassifiesErrors(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	if _, err := codec.VerifyAccess("not-a-jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for garbage input, got %v", err)
	}

	otherCfg := testConfig()
	otherCfg.AccessSecret = []byte("another-access-secret-32-bytes!!")
	other, err := NewCodec(otherCfg)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	foreign, err := other.MintAccess("acct-1", "shopper", 1, false)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	if _, err := codec.VerifyAccess(foreign); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for foreign key, got %v", err)
	}

	expCfg := testConfig()
	expCfg.AccessTTL = time.Nanosecond
	expCfg.Leeway = 0
	expiring, err := NewCodec(expCfg)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	stale, err := expiring.MintAccess("acct-1", "shopper", 1, false)
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := expiring.VerifyAccess(stale); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestChallengeTokenRejectedByAccessVerifier(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	challenge, err := codec.MintChallenge("chal-1", "acct-1", StepVerify, "")
	if err != nil {
		t.Fatalf("MintChallenge failed: %v", err)
	}

	// Signed with the challenge secret, so the access verifier must refuse it.
	if _, err := codec.VerifyAccess(challenge); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestChallengeRoundTripAndStepBinding(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	tokenStr, err := codec.MintChallenge("chal-7", "acct-2", StepEnrollVerify, "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("MintChallenge failed: %v", err)
	}

	claims, err := codec.VerifyChallenge(tokenStr)
	if err != nil {
		t.Fatalf("VerifyChallenge failed: %v", err)
	}
	if claims.ChallengeID != "chal-7" || claims.AccountID != "acct-2" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Step != StepEnrollVerify || claims.PendingSecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestMintChallengeGuardsPendingSecret(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	if _, err := codec.MintChallenge("chal-1", "acct-1", StepVerify, "JBSWY3DPEHPK3PXP"); err == nil {
		t.Fatal("expected pending secret rejection for verify step")
	}
	if _, err := codec.MintChallenge("chal-1", "acct-1", ChallengeStep("bogus"), ""); err == nil {
		t.Fatal("expected unknown step rejection")
	}
}

func TestOpaqueSecretAndHash(t *testing.T) {
	first, err := NewOpaqueSecret()
	if err != nil {
		t.Fatalf("NewOpaqueSecret failed: %v", err)
	}
	second, err := NewOpaqueSecret()
	if err != nil {
		t.Fatalf("NewOpaqueSecret failed: %v", err)
	}
	if first == second {
		t.Fatal("opaque secrets must not repeat")
	}
	if len(first) < 40 {
		t.Fatalf("opaque secret unexpectedly short: %d", len(first))
	}

	if Hash(first) == Hash(second) {
		t.Fatal("distinct secrets hashed to the same digest")
	}
	if len(Hash(first)) != 64 {
		t.Fatalf("expected hex sha-256 digest, got %q", Hash(first))
	}
}
