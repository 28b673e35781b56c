package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix    = "amc"
	challengeWatchRetries = 4
)

var (
	// ErrChallengeNotFound is an exported constant or variable used by the access-control engine.
	ErrChallengeNotFound = errors.New("mfa challenge not found")
	// ErrChallengeExpired is an exported constant or variable used by the access-control engine.
	ErrChallengeExpired = errors.New("mfa challenge expired")
	// ErrChallengeExceeded is an exported constant or variable used by the access-control engine.
	ErrChallengeExceeded = errors.New("mfa challenge attempts exceeded")
	// ErrChallengeBackend is an exported constant or variable used by the access-control engine.
	ErrChallengeBackend = errors.New("mfa challenge backend unavailable")
)

// Challenge defines a public type used by the authcore APIs.
//
// Challenge instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Challenge struct {
	AccountID string `json:"account_id"`
	Step      string `json:"step"`
	ExpiresAt int64  `json:"expires_at"`
	Attempts  uint16 `json:"attempts"`
}

func (c *Challenge) expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

// ChallengeStore defines a public type used by the authcore APIs.
//
// ChallengeStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeStore struct {
	redis *redis.Client

	mu    sync.Mutex
	local map[string]*Challenge
}

// NewChallengeStore describes the newchallengestore operation and its observable behavior.
//
// A nil redis client selects the in-process backend; challenge replay is then
// only guarded within a single process.
//
// NewChallengeStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChallengeStore(redisClient *redis.Client) *ChallengeStore {
	return &ChallengeStore{
		redis: redisClient,
		local: make(map[string]*Challenge),
	}
}

func (s *ChallengeStore) key(challengeID string) string {
	return challengeKeyPrefix + ":" + challengeID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChallengeStore) Save(ctx context.Context, challengeID string, record *Challenge, ttl time.Duration) error {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		clone := *record
		s.local[challengeID] = &clone
		return nil
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(challengeID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChallengeStore) Get(ctx context.Context, challengeID string) (*Challenge, error) {
	now := time.Now()

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		record, ok := s.local[challengeID]
		if !ok {
			return nil, ErrChallengeNotFound
		}
		if record.expired(now) {
			delete(s.local, challengeID)
			return nil, ErrChallengeExpired
		}
		clone := *record
		return &clone, nil
	}

	data, err := s.redis.Get(ctx, s.key(challengeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}

	record := &Challenge{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, ErrChallengeNotFound
	}
	if record.expired(now) {
		_, _ = s.redis.Del(ctx, s.key(challengeID)).Result()
		return nil, ErrChallengeExpired
	}
	return record, nil
}

// Consume describes the consume operation and its observable behavior.
//
// Consume may return an error when input validation, dependency calls, or security checks fail.
// Consume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChallengeStore) Consume(ctx context.Context, challengeID string) (bool, error) {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.local[challengeID]
		delete(s.local, challengeID)
		return ok, nil
	}

	n, err := s.redis.Del(ctx, s.key(challengeID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return n > 0, nil
}

// RecordFailure describes the recordfailure operation and its observable behavior.
//
// Once the attempt budget is exhausted the record is deleted, so further
// guesses on the same challenge look like an expired challenge.
//
// RecordFailure may return an error when input validation, dependency calls, or security checks fail.
// RecordFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChallengeStore) RecordFailure(ctx context.Context, challengeID string, maxAttempts int) (bool, error) {
	now := time.Now()

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		record, ok := s.local[challengeID]
		if !ok {
			return false, ErrChallengeNotFound
		}
		if record.expired(now) {
			delete(s.local, challengeID)
			return false, ErrChallengeExpired
		}
		record.Attempts++
		if int(record.Attempts) >= maxAttempts {
			delete(s.local, challengeID)
			return true, nil
		}
		return false, nil
	}

	key := s.key(challengeID)
	for i := 0; i < challengeWatchRetries; i++ {
		var exceeded bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record := &Challenge{}
			if err := json.Unmarshal(data, record); err != nil {
				return ErrChallengeNotFound
			}
			ttl := time.Until(time.Unix(record.ExpiresAt, 0))
			if record.expired(now) || ttl <= 0 {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrChallengeExpired
			}

			record.Attempts++
			if int(record.Attempts) >= maxAttempts {
				exceeded = true
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			updated, err := json.Marshal(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, ErrChallengeNotFound
			}
			if errors.Is(err, ErrChallengeExpired) || errors.Is(err, ErrChallengeNotFound) {
				return false, err
			}
			return false, fmt.Errorf("%w: %v", ErrChallengeBackend, err)
		}
		return exceeded, nil
	}

	return false, ErrChallengeNotFound
}
