package authcore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

type testEnv struct {
	engine *Engine
	db     *gorm.DB
	store  *accounts.Store
	sink   *captureSink
	mr     *miniredis.Miniredis
}

func newEngineConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret-0123456789abc")
	cfg.Token.ChallengeSecret = []byte("test-challenge-secret-0123456789")
	cfg.Session.RefreshTTL = 24 * time.Hour

	// cheap argon2 parameters, hashing is not under test here
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 8
	cfg.Password.KeyLength = 16
	cfg.Password.MinLength = 8

	cfg.RateLimit.Disabled = true
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db handle failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := newEngineConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	sink := &captureSink{}
	engine, err := New().
		WithConfig(cfg).
		WithDB(db).
		WithRedis(client).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithAuditSink(sink).
		WithSubAdminPermissions([]string{"users.block", "sellers.approve"}).
		WithAssistantPermissions([]string{"products.manage", "orders.view"}).
		WithAutoMigrate(true).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{
		engine: engine,
		db:     db,
		store:  accounts.NewStore(db),
		sink:   sink,
		mr:     mr,
	}
}

// testIdentity builds an authenticated identity without going through the
// token round trip, for authorization-only tests.
func testIdentity(acct *accounts.Account, mfaVerified bool) *Identity {
	return &Identity{
		Account: acct,
		Claims: &token.AccessClaims{
			AccountID:    acct.ID,
			Role:         string(acct.Role),
			TokenVersion: acct.TokenVersion,
			MFAVerified:  mfaVerified,
		},
	}
}

func (env *testEnv) seedAccount(t *testing.T, role accounts.Role, password string, mutate func(*accounts.Account)) *accounts.Account {
	t.Helper()

	hash, err := env.engine.hasher.Hash(password)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	acct := &accounts.Account{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       accounts.StatusActive,
	}
	if mutate != nil {
		mutate(acct)
	}
	if err := env.store.Create(context.Background(), acct); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return acct
}

// enrollMFA persists a known TOTP secret so login goes through the verify
// challenge instead of enrollment.
func (env *testEnv) enrollMFA(t *testing.T, accountID string) []byte {
	t.Helper()

	secret := []byte("12345678901234567890")
	if err := env.store.SaveMFASecret(context.Background(), accountID, secret); err != nil {
		t.Fatalf("mfa seed failed: %v", err)
	}
	return secret
}

func (env *testEnv) totpCode(t *testing.T, secret []byte, at time.Time) string {
	t.Helper()

	mfa := env.engine.config.MFA
	code, err := hotpCode(secret, at.Unix()/int64(mfa.Period), mfa.Digits, mfa.Algorithm)
	if err != nil {
		t.Fatalf("totp code generation failed: %v", err)
	}
	return code
}

// auditEvents closes the engine to drain the dispatcher, then returns every
// recorded event type.
func (env *testEnv) auditEvents() []string {
	env.engine.Close()
	events := env.sink.all()
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.EventType)
	}
	return types
}

func containsEvent(types []string, want string) bool {
	for _, et := range types {
		if et == want {
			return true
		}
	}
	return false
}

func (env *testEnv) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()

	result, err := env.engine.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return result
}
