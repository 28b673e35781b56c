package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VortexDevX/E-Commerce-sub001/token"
)

var (
	// ErrUnknownSession is an exported constant or variable used by the access-control engine.
	ErrUnknownSession = errors.New("refresh session not found")
	// ErrExpiredSession is an exported constant or variable used by the access-control engine.
	ErrExpiredSession = errors.New("refresh session expired")
	// ErrReuseDetected is an exported constant or variable used by the access-control engine.
	ErrReuseDetected = errors.New("refresh secret reuse detected")
)

// Store defines a public type used by the authcore APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	db *gorm.DB
}

// NewStore describes the newstore operation and its observable behavior.
//
// NewStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate describes the migrate operation and its observable behavior.
//
// Migrate may return an error when input validation, dependency calls, or security checks fail.
// Migrate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Session{})
}

// OpenFamily describes the openfamily operation and its observable behavior.
//
// OpenFamily may return an error when input validation, dependency calls, or security checks fail.
// OpenFamily does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) OpenFamily(ctx context.Context, accountID string, ttl time.Duration, meta Metadata) (string, *Session, error) {
	secret, err := token.NewOpaqueSecret()
	if err != nil {
		return "", nil, fmt.Errorf("refresh secret generation failed: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		FamilyID:    uuid.NewString(),
		SecretHash:  token.Hash(secret),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		MFAVerified: meta.MFAVerified,
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return "", nil, fmt.Errorf("refresh session insert failed: %w", err)
	}
	return secret, sess, nil
}

// Rotate describes the rotate operation and its observable behavior.
//
// Rotation is a single conditional update: the presented row is retired only
// while it still has no successor and no revocation. Zero rows affected means
// another rotation won or the secret was replayed; both collapse to reuse and
// the whole family is revoked before the error surfaces.
//
// Rotate may return an error when input validation, dependency calls, or security checks fail.
// Rotate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Rotate(ctx context.Context, presentedSecret string, ttl time.Duration, meta Metadata) (string, *Session, error) {
	hash := token.Hash(presentedSecret)
	now := time.Now()

	var current Session
	err := s.db.WithContext(ctx).Where("secret_hash = ?", hash).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrUnknownSession
	}
	if err != nil {
		return "", nil, fmt.Errorf("refresh session lookup failed: %w", err)
	}

	if current.SuccessorID != nil || current.RevokedAt != nil {
		if err := s.RevokeFamily(ctx, current.FamilyID); err != nil {
			return "", nil, err
		}
		return "", nil, ErrReuseDetected
	}
	if !now.Before(current.ExpiresAt) {
		return "", nil, ErrExpiredSession
	}

	secret, err := token.NewOpaqueSecret()
	if err != nil {
		return "", nil, fmt.Errorf("refresh secret generation failed: %w", err)
	}
	next := &Session{
		ID:          uuid.NewString(),
		AccountID:   current.AccountID,
		FamilyID:    current.FamilyID,
		SecretHash:  token.Hash(secret),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		MFAVerified: current.MFAVerified,
	}

	reused := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("successor insert failed: %w", err)
		}
		res := tx.Model(&Session{}).
			Where("id = ? AND successor_id IS NULL AND revoked_at IS NULL", current.ID).
			Updates(map[string]interface{}{
				"successor_id": next.ID,
				"revoked_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("rotation update failed: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			reused = true
			return ErrReuseDetected
		}
		return nil
	})
	if reused {
		if revokeErr := s.RevokeFamily(ctx, current.FamilyID); revokeErr != nil {
			return "", nil, revokeErr
		}
		return "", nil, ErrReuseDetected
	}
	if err != nil {
		return "", nil, err
	}

	return secret, next, nil
}

// FindBySecret describes the findbysecret operation and its observable behavior.
//
// FindBySecret may return an error when input validation, dependency calls, or security checks fail.
// FindBySecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindBySecret(ctx context.Context, presentedSecret string) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).Where("secret_hash = ?", token.Hash(presentedSecret)).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownSession
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session lookup failed: %w", err)
	}
	return &sess, nil
}

// RevokeFamily describes the revokefamily operation and its observable behavior.
//
// RevokeFamily may return an error when input validation, dependency calls, or security checks fail.
// RevokeFamily does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) RevokeFamily(ctx context.Context, familyID string) error {
	err := s.db.WithContext(ctx).Model(&Session{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("family revocation failed: %w", err)
	}
	return nil
}

// RevokeAllForAccount describes the revokeallforaccount operation and its observable behavior.
//
// RevokeAllForAccount may return an error when input validation, dependency calls, or security checks fail.
// RevokeAllForAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) RevokeAllForAccount(ctx context.Context, accountID string) error {
	err := s.db.WithContext(ctx).Model(&Session{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("account-wide revocation failed: %w", err)
	}
	return nil
}

// DeleteExpired describes the deleteexpired operation and its observable behavior.
//
// DeleteExpired may return an error when input validation, dependency calls, or security checks fail.
// DeleteExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("expired session sweep failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
