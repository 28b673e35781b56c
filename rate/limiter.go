package rate

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	counterPrefix = "arl:c:"
	blockPrefix   = "arl:b:"

	relaxedMultiplier = 10
)

// Rule defines a public type used by the authcore APIs.
//
// Rule instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Rule struct {
	Points int
	Window time.Duration
	Block  time.Duration
}

// Config defines a public type used by the authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Disabled     bool
	Relaxed      bool
	Production   bool
	ProbeTimeout time.Duration
	Rules        map[string]Rule
}

// DefaultRules describes the defaultrules operation and its observable behavior.
//
// DefaultRules does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"login":           {Points: 10, Window: time.Minute, Block: 5 * time.Minute},
		"register":        {Points: 5, Window: time.Minute, Block: 10 * time.Minute},
		"refresh":         {Points: 60, Window: time.Minute, Block: time.Minute},
		"forgot_password": {Points: 3, Window: 5 * time.Minute, Block: 15 * time.Minute},
		"reset_password":  {Points: 5, Window: 5 * time.Minute, Block: 15 * time.Minute},
		"contact":         {Points: 5, Window: 10 * time.Minute, Block: 30 * time.Minute},
		"track_event":     {Points: 120, Window: time.Minute, Block: 0},
	}
}

// Limiter defines a public type used by the authcore APIs.
//
// Limiter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Limiter struct {
	redis   redis.UniversalClient
	local   *localCounters
	config  Config
	durable bool
}

// New describes the new operation and its observable behavior.
//
// The durable backend is decided once per process: a bounded-timeout PING at
// construction. A probe failure never disables limiting, it only routes the
// counters to process-local memory.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 500 * time.Millisecond
	}

	l := &Limiter{
		redis:  redisClient,
		local:  newLocalCounters(),
		config: cfg,
	}
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
		defer cancel()
		l.durable = redisClient.Ping(ctx).Err() == nil
	}
	return l
}

// Durable describes the durable operation and its observable behavior.
//
// Durable does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l *Limiter) Durable() bool {
	return l.durable
}

// Allow describes the allow operation and its observable behavior.
//
// Every key is an independent budget; the first exhausted one rejects the
// whole call and carries the retry hint. Unknown actions pass untouched so a
// missing rule can never lock an endpoint out.
//
// Allow may return an error when input validation, dependency calls, or security checks fail.
// Allow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l *Limiter) Allow(ctx context.Context, action string, keys ...string) error {
	if l.config.Disabled {
		return nil
	}
	rule, ok := l.config.Rules[action]
	if !ok || rule.Points <= 0 || rule.Window <= 0 {
		return nil
	}
	if l.config.Relaxed {
		rule.Points *= relaxedMultiplier
		if !l.config.Production && hasLoopback(keys) {
			return nil
		}
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := l.allowKey(ctx, action, key, rule); err != nil {
			return err
		}
	}
	return nil
}

func (l *Limiter) allowKey(ctx context.Context, action, key string, rule Rule) error {
	if l.durable {
		err, redisErr := l.allowRedis(ctx, action, key, rule)
		if redisErr == nil {
			return err
		}
		// runtime outage: degrade this call to the local counters
	}
	return l.local.allow(action, key, rule)
}

func (l *Limiter) allowRedis(ctx context.Context, action, key string, rule Rule) (error, error) {
	blockKey := blockPrefix + action + ":" + key
	counterKey := counterPrefix + action + ":" + key

	blocked, err := l.redis.TTL(ctx, blockKey).Result()
	if err != nil {
		return nil, err
	}
	if blocked > 0 {
		return &LimitedError{Action: action, RetryAfter: blocked}, nil
	}

	count, err := l.redis.Incr(ctx, counterKey).Result()
	if err != nil {
		return nil, err
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, counterKey, rule.Window).Err(); err != nil {
			return nil, err
		}
	}
	if count <= int64(rule.Points) {
		return nil, nil
	}

	retry, err := l.redis.TTL(ctx, counterKey).Result()
	if err != nil || retry <= 0 {
		retry = rule.Window
	}
	if rule.Block > 0 {
		if err := l.redis.Set(ctx, blockKey, "1", rule.Block).Err(); err != nil {
			return nil, err
		}
		retry = rule.Block
	}
	return &LimitedError{Action: action, RetryAfter: retry}, nil
}

func hasLoopback(keys []string) bool {
	for _, key := range keys {
		if ip := net.ParseIP(key); ip != nil && ip.IsLoopback() {
			return true
		}
	}
	return false
}
