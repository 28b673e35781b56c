package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is an exported constant or variable used by the access-control engine.
	ErrNotFound = errors.New("account record not found")
	// ErrDuplicateEmail is an exported constant or variable used by the access-control engine.
	ErrDuplicateEmail = errors.New("email is already registered")
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
	return s.db.WithContext(ctx).AutoMigrate(&Account{}, &PasswordResetToken{})
}

// GetByEmail describes the getbyemail operation and its observable behavior.
//
// GetByEmail may return an error when input validation, dependency calls, or security checks fail.
// GetByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var acct Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return &acct, nil
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	var acct Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return &acct, nil
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Create(ctx context.Context, acct *Account) error {
	err := s.db.WithContext(ctx).Create(acct).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("account insert failed: %w", err)
	}
	return nil
}

// UpdatePasswordHash describes the updatepasswordhash operation and its observable behavior.
//
// UpdatePasswordHash may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("password update failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpTokenVersion describes the bumptokenversion operation and its observable behavior.
//
// The counter only ever moves forward; every outstanding access token minted
// against the previous value stops verifying once the bump lands.
//
// BumpTokenVersion may return an error when input validation, dependency calls, or security checks fail.
// BumpTokenVersion does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) BumpTokenVersion(ctx context.Context, id string) (uint32, error) {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("token version bump failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	acct, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return acct.TokenVersion, nil
}

// SaveMFASecret describes the savemfasecret operation and its observable behavior.
//
// SaveMFASecret may return an error when input validation, dependency calls, or security checks fail.
// SaveMFASecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SaveMFASecret(ctx context.Context, id string, secret []byte) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"mfa_enabled":     true,
			"mfa_secret":      secret,
			"mfa_enrolled_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("mfa enrollment persist failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMFALastCounter describes the setmfalastcounter operation and its observable behavior.
//
// SetMFALastCounter may return an error when input validation, dependency calls, or security checks fail.
// SetMFALastCounter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetMFALastCounter(ctx context.Context, id string, counter uint64) error {
	res := s.db.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND mfa_last_counter < ?", id, counter).
		Update("mfa_last_counter", counter)
	if res.Error != nil {
		return fmt.Errorf("mfa counter update failed: %w", res.Error)
	}
	return nil
}

// SetApproval describes the setapproval operation and its observable behavior.
//
// SetApproval may return an error when input validation, dependency calls, or security checks fail.
// SetApproval does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetApproval(ctx context.Context, id string, approved bool) error {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Update("approved", approved)
	if res.Error != nil {
		return fmt.Errorf("approval update failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus describes the setstatus operation and its observable behavior.
//
// SetStatus may return an error when input validation, dependency calls, or security checks fail.
// SetStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("status update failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateResetToken describes the createresettoken operation and its observable behavior.
//
// CreateResetToken may return an error when input validation, dependency calls, or security checks fail.
// CreateResetToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) CreateResetToken(ctx context.Context, token *PasswordResetToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("reset token insert failed: %w", err)
	}
	return nil
}

// FindResetToken describes the findresettoken operation and its observable behavior.
//
// FindResetToken may return an error when input validation, dependency calls, or security checks fail.
// FindResetToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindResetToken(ctx context.Context, secretHash string) (*PasswordResetToken, error) {
	var token PasswordResetToken
	err := s.db.WithContext(ctx).Where("secret_hash = ?", secretHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reset token lookup failed: %w", err)
	}
	return &token, nil
}

// ConsumeResetToken describes the consumeresettoken operation and its observable behavior.
//
// The conditional update makes consumption single-use under concurrency: only
// one caller observes rows affected.
//
// ConsumeResetToken may return an error when input validation, dependency calls, or security checks fail.
// ConsumeResetToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) ConsumeResetToken(ctx context.Context, id string) (bool, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL AND expires_at > ?", id, now).
		Update("used_at", now)
	if res.Error != nil {
		return false, fmt.Errorf("reset token consume failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
