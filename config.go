package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/rate"
)

/* ==== TOKENS ==== */

// TokenConfig defines a public type used by the authcore APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	AccessSecret    []byte
	ChallengeSecret []byte
	AccessTTL       time.Duration
	ChallengeTTL    time.Duration
	Issuer          string
	Leeway          time.Duration
}

/* ==== SESSIONS ==== */

// SessionConfig defines a public type used by the authcore APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RefreshTTL time.Duration
}

/* ==== PASSWORDS ==== */

// PasswordConfig defines a public type used by the authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

// PasswordResetConfig defines a public type used by the authcore APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	Enabled  bool
	ResetTTL time.Duration
}

/* ==== MFA ==== */

// MFAConfig defines a public type used by the authcore APIs.
//
// MFAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfig struct {
	Issuer               string
	Algorithm            string
	Digits               int
	Period               int
	Skew                 int
	MaxAttempts          int
	RequiredRoles        []accounts.Role
	AllowUnenrolledAdmin bool
}

/* ==== AUDIT ==== */

// AuditConfig defines a public type used by the authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/* ==== SECURITY ==== */

// SecurityConfig defines a public type used by the authcore APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode  bool
	RequireAdminMFA bool
}

/* ==== STORES ==== */

// StoreConfig defines a public type used by the authcore APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	Timeout time.Duration
}

/* ==== ROOT ==== */

// Config defines a public type used by the authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token         TokenConfig
	Session       SessionConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	MFA           MFAConfig
	RateLimit     rate.Config
	Audit         AuditConfig
	Security      SecurityConfig
	Store         StoreConfig
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:    10 * time.Minute,
			ChallengeTTL: 5 * time.Minute,
			Issuer:       "authcore",
			Leeway:       30 * time.Second,
		},
		Session: SessionConfig{
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      10,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			Enabled:  true,
			ResetTTL: 30 * time.Minute,
		},
		MFA: MFAConfig{
			Issuer:      "authcore",
			Algorithm:   "SHA1",
			Digits:      6,
			Period:      30,
			Skew:        1,
			MaxAttempts: 5,
			RequiredRoles: []accounts.Role{
				accounts.RoleAdministrator,
				accounts.RoleSubAdministrator,
			},
		},
		RateLimit: rate.Config{
			ProbeTimeout: 500 * time.Millisecond,
			Rules:        rate.DefaultRules(),
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Security: SecurityConfig{
			RequireAdminMFA: true,
		},
		Store: StoreConfig{
			Timeout: 3 * time.Second,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) < 32 {
		return errors.New("token: access secret must be at least 32 bytes")
	}
	if len(c.Token.ChallengeSecret) < 32 {
		return errors.New("token: challenge secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("token: access TTL must be positive")
	}
	if c.Token.ChallengeTTL <= 0 {
		return errors.New("token: challenge TTL must be positive")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token: leeway must be within [0, 2m]")
	}

	if c.Session.RefreshTTL < time.Hour {
		return errors.New("session: refresh TTL must be at least one hour")
	}
	if c.Session.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("session: refresh TTL must exceed access TTL")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("password: argon2 memory must be at least 8 MiB")
	}
	if c.Password.Time == 0 {
		return errors.New("password: argon2 time cost must be positive")
	}
	if c.Password.Parallelism == 0 {
		return errors.New("password: argon2 parallelism must be positive")
	}
	if c.Password.SaltLength < 8 {
		return errors.New("password: salt length must be at least 8 bytes")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("password: key length must be at least 16 bytes")
	}
	if c.Password.MinLength < 8 {
		return errors.New("password: minimum length must be at least 8")
	}

	if c.PasswordReset.Enabled && c.PasswordReset.ResetTTL <= 0 {
		return errors.New("password reset: TTL must be positive")
	}

	if c.MFA.Digits < 6 || c.MFA.Digits > 10 {
		return errors.New("mfa: digits must be within [6, 10]")
	}
	if c.MFA.Period < 15 || c.MFA.Period > 120 {
		return errors.New("mfa: period must be within [15s, 120s]")
	}
	if c.MFA.Skew < 0 || c.MFA.Skew > 2 {
		return errors.New("mfa: skew must be within [0, 2] steps")
	}
	if c.MFA.MaxAttempts < 1 || c.MFA.MaxAttempts > 10 {
		return errors.New("mfa: max attempts must be within [1, 10]")
	}
	for _, role := range c.MFA.RequiredRoles {
		if !role.Valid() {
			return fmt.Errorf("mfa: unknown required role %q", role)
		}
	}

	if c.RateLimit.ProbeTimeout < 0 || c.RateLimit.ProbeTimeout > 5*time.Second {
		return errors.New("rate limit: probe timeout must be within [0, 5s]")
	}
	for action, rule := range c.RateLimit.Rules {
		if rule.Points <= 0 {
			return fmt.Errorf("rate limit: action %q needs positive points", action)
		}
		if rule.Window <= 0 {
			return fmt.Errorf("rate limit: action %q needs positive window", action)
		}
		if rule.Block < 0 {
			return fmt.Errorf("rate limit: action %q has negative block duration", action)
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit: buffer size must be positive when enabled")
	}

	if c.Store.Timeout <= 0 || c.Store.Timeout > 30*time.Second {
		return errors.New("store: timeout must be within (0, 30s]")
	}

	if c.Security.ProductionMode {
		if c.Token.AccessTTL > 15*time.Minute {
			return errors.New("production: access TTL must not exceed 15 minutes")
		}
		if c.RateLimit.Disabled {
			return errors.New("production: rate limiting must not be disabled")
		}
		if !c.Security.RequireAdminMFA {
			return errors.New("production: admin MFA gate must stay enabled")
		}
		if c.MFA.AllowUnenrolledAdmin {
			return errors.New("production: unenrolled admin grace mode is not allowed")
		}
	}

	return nil
}

func cloneConfig(c Config) Config {
	clone := c
	clone.Token.AccessSecret = cloneBytes(c.Token.AccessSecret)
	clone.Token.ChallengeSecret = cloneBytes(c.Token.ChallengeSecret)
	clone.MFA.RequiredRoles = append([]accounts.Role(nil), c.MFA.RequiredRoles...)
	if c.RateLimit.Rules != nil {
		clone.RateLimit.Rules = make(map[string]rate.Rule, len(c.RateLimit.Rules))
		for action, rule := range c.RateLimit.Rules {
			clone.RateLimit.Rules[action] = rule
		}
	}
	return clone
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
