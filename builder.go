package authcore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/internal/stores"
	"github.com/VortexDevX/E-Commerce-sub001/ledger"
	"github.com/VortexDevX/E-Commerce-sub001/password"
	"github.com/VortexDevX/E-Commerce-sub001/rate"
	"github.com/VortexDevX/E-Commerce-sub001/scope"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// Builder defines a public type used by the authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config         Config
	configSet      bool
	db             *gorm.DB
	redis          *redis.Client
	logger         *slog.Logger
	auditSink      AuditSink
	provider       AccountProvider
	subAdminPerms  []string
	assistantPerms []string
	autoMigrate    bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.configSet = true
	return b
}

// WithDB describes the withdb operation and its observable behavior.
//
// WithDB does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDB(db *gorm.DB) *Builder {
	b.db = db
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAccountProvider describes the withaccountprovider operation and its observable behavior.
//
// WithAccountProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAccountProvider(provider AccountProvider) *Builder {
	b.provider = provider
	return b
}

// WithSubAdminPermissions describes the withsubadminpermissions operation and its observable behavior.
//
// WithSubAdminPermissions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSubAdminPermissions(names []string) *Builder {
	b.subAdminPerms = append([]string(nil), names...)
	return b
}

// WithAssistantPermissions describes the withassistantpermissions operation and its observable behavior.
//
// WithAssistantPermissions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAssistantPermissions(names []string) *Builder {
	b.assistantPerms = append([]string(nil), names...)
	return b
}

// WithAutoMigrate describes the withautomigrate operation and its observable behavior.
//
// WithAutoMigrate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAutoMigrate(enabled bool) *Builder {
	b.autoMigrate = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.config
	if !b.configSet {
		cfg = defaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.db == nil {
		return nil, errors.New("builder: a gorm database is required")
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:    cfg.Token.AccessSecret,
		ChallengeSecret: cfg.Token.ChallengeSecret,
		AccessTTL:       cfg.Token.AccessTTL,
		ChallengeTTL:    cfg.Token.ChallengeTTL,
		Issuer:          cfg.Token.Issuer,
		Leeway:          cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	registry, err := scope.NewRegistry(b.subAdminPerms, b.assistantPerms)
	if err != nil {
		return nil, err
	}

	provider := b.provider
	accountStore := accounts.NewStore(b.db)
	if provider == nil {
		provider = accountStore
	}
	sessionLedger := ledger.NewStore(b.db)

	if b.autoMigrate {
		ctx := context.Background()
		if err := accountStore.Migrate(ctx); err != nil {
			return nil, err
		}
		if err := sessionLedger.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiterRedis redis.UniversalClient
	if b.redis != nil {
		limiterRedis = b.redis
	}
	limiter := rate.New(limiterRedis, cfg.RateLimit)
	if b.redis != nil && !limiter.Durable() {
		logger.Warn("rate limiter redis probe failed, using process-local counters")
	}

	return &Engine{
		config:     cfg,
		logger:     logger,
		accounts:   provider,
		ledger:     sessionLedger,
		codec:      codec,
		hasher:     hasher,
		registry:   registry,
		limiter:    limiter,
		challenges: stores.NewChallengeStore(b.redis),
		totp:       newTOTPManager(cfg.MFA),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
	}, nil
}
