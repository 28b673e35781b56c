package authcore

import (
	"context"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// Identity defines a public type used by the authcore APIs.
//
// Identity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Identity struct {
	Account *accounts.Account
	Claims  *token.AccessClaims
}

// MFAStep defines a public type used by the authcore APIs.
//
// MFAStep instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAStep string

const (
	// MFAStepVerify is an exported constant or variable used by the access-control engine.
	MFAStepVerify MFAStep = "verify"
	// MFAStepEnroll is an exported constant or variable used by the access-control engine.
	MFAStepEnroll MFAStep = "enroll"
)

// LoginResult defines a public type used by the authcore APIs.
//
// Either the token pair is populated, or MFARequired is set and the caller
// must continue through the challenge flow with MFAChallenge.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	AccessToken   string
	RefreshSecret string
	MFARequired   bool
	MFAStep       MFAStep
	MFAChallenge  string
}

// EnrollmentSetup defines a public type used by the authcore APIs.
//
// EnrollmentSetup instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnrollmentSetup struct {
	Challenge    string
	SecretBase32 string
	ProvisionURI string
}

// CreateAccountRequest defines a public type used by the authcore APIs.
//
// CreateAccountRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CreateAccountRequest struct {
	Email       string
	Password    string
	Role        accounts.Role
	AssistantOf string
}

// AccountProvider defines a public type used by the authcore APIs.
//
// accounts.Store is the stock implementation; the contract exists so
// deployments with their own account persistence can still drive the engine.
type AccountProvider interface {
	GetByEmail(ctx context.Context, email string) (*accounts.Account, error)
	GetByID(ctx context.Context, id string) (*accounts.Account, error)
	Create(ctx context.Context, acct *accounts.Account) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	BumpTokenVersion(ctx context.Context, id string) (uint32, error)
	SaveMFASecret(ctx context.Context, id string, secret []byte) error
	SetMFALastCounter(ctx context.Context, id string, counter uint64) error
	CreateResetToken(ctx context.Context, token *accounts.PasswordResetToken) error
	FindResetToken(ctx context.Context, secretHash string) (*accounts.PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, id string) (bool, error)
}
