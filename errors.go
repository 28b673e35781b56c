package authcore

import (
	"errors"

	"github.com/VortexDevX/E-Commerce-sub001/ledger"
	"github.com/VortexDevX/E-Commerce-sub001/rate"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

var (
	// ErrUnauthorized is an exported constant or variable used by the access-control engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the access-control engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked is an exported constant or variable used by the access-control engine.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrAccountExists is an exported constant or variable used by the access-control engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountRoleInvalid is an exported constant or variable used by the access-control engine.
	ErrAccountRoleInvalid = errors.New("invalid account role")
	// ErrPasswordPolicy is an exported constant or variable used by the access-control engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is an exported constant or variable used by the access-control engine.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrTokenRevoked is an exported constant or variable used by the access-control engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidCode is an exported constant or variable used by the access-control engine.
	ErrInvalidCode = errors.New("invalid mfa code")
	// ErrChallengeExpired is an exported constant or variable used by the access-control engine.
	ErrChallengeExpired = errors.New("mfa challenge expired")
	// ErrMFARequired is an exported constant or variable used by the access-control engine.
	ErrMFARequired = errors.New("mfa verification required")
	// ErrInsufficientPermissions is an exported constant or variable used by the access-control engine.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrForbidden is an exported constant or variable used by the access-control engine.
	ErrForbidden = errors.New("forbidden")
	// ErrScopeUnavailable is an exported constant or variable used by the access-control engine.
	ErrScopeUnavailable = errors.New("seller scope unavailable")
	// ErrResetInvalid is an exported constant or variable used by the access-control engine.
	ErrResetInvalid = errors.New("password reset token invalid")
	// ErrResetDisabled is an exported constant or variable used by the access-control engine.
	ErrResetDisabled = errors.New("password reset disabled")
	// ErrEngineNotReady is an exported constant or variable used by the access-control engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Codec, ledger, and limiter sentinels are re-exported so callers match every
// engine error in one place with errors.Is.
var (
	// ErrMalformedToken is an exported constant or variable used by the access-control engine.
	ErrMalformedToken = token.ErrMalformed
	// ErrBadSignature is an exported constant or variable used by the access-control engine.
	ErrBadSignature = token.ErrBadSignature
	// ErrExpiredToken is an exported constant or variable used by the access-control engine.
	ErrExpiredToken = token.ErrExpired
	// ErrUnknownSession is an exported constant or variable used by the access-control engine.
	ErrUnknownSession = ledger.ErrUnknownSession
	// ErrExpiredSession is an exported constant or variable used by the access-control engine.
	ErrExpiredSession = ledger.ErrExpiredSession
	// ErrSessionReuseDetected is an exported constant or variable used by the access-control engine.
	ErrSessionReuseDetected = ledger.ErrReuseDetected
	// ErrRateLimited is an exported constant or variable used by the access-control engine.
	ErrRateLimited = rate.ErrRateLimited
)

// RateLimitedError defines a public type used by the authcore APIs.
//
// RateLimitedError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitedError = rate.LimitedError
