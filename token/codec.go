package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	opaqueSecretSize = 32
	minSigningSecret = 32
)

var (
	// ErrMalformed is an exported constant or variable used by the access-control engine.
	ErrMalformed = errors.New("token is malformed")
	// ErrBadSignature is an exported constant or variable used by the access-control engine.
	ErrBadSignature = errors.New("token signature is invalid")
	// ErrExpired is an exported constant or variable used by the access-control engine.
	ErrExpired = errors.New("token is expired")
)

// ChallengeStep defines a public type used by the authcore APIs.
//
// ChallengeStep instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeStep string

const (
	// StepVerify is an exported constant or variable used by the access-control engine.
	StepVerify ChallengeStep = "verify"
	// StepEnroll is an exported constant or variable used by the access-control engine.
	StepEnroll ChallengeStep = "enroll"
	// StepEnrollVerify is an exported constant or variable used by the access-control engine.
	StepEnrollVerify ChallengeStep = "enroll-verify"
)

// Config defines a public type used by the authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessSecret    []byte
	ChallengeSecret []byte
	AccessTTL       time.Duration
	ChallengeTTL    time.Duration
	Issuer          string
	Leeway          time.Duration
}

// Codec defines a public type used by the authcore APIs.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	config Config
}

// AccessClaims defines a public type used by the authcore APIs.
//
// AccessClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessClaims struct {
	AccountID    string `json:"uid"`
	Role         string `json:"role"`
	TokenVersion uint32 `json:"tv"`
	MFAVerified  bool   `json:"mfa,omitempty"`
	jwt.RegisteredClaims
}

// ChallengeClaims defines a public type used by the authcore APIs.
//
// ChallengeClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeClaims struct {
	ChallengeID   string        `json:"cid"`
	AccountID     string        `json:"uid"`
	Step          ChallengeStep `json:"stp"`
	PendingSecret string        `json:"psec,omitempty"`
	jwt.RegisteredClaims
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation, dependency calls, or security checks fail.
// NewCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) < minSigningSecret {
		return nil, errors.New("access signing secret missing or too short")
	}
	if len(cfg.ChallengeSecret) < minSigningSecret {
		return nil, errors.New("challenge signing secret missing or too short")
	}
	if len(cfg.AccessSecret) == len(cfg.ChallengeSecret) &&
		subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.ChallengeSecret) == 1 {
		return nil, errors.New("access and challenge secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.ChallengeTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Codec{config: cfg}, nil
}

// MintAccess describes the mintaccess operation and its observable behavior.
//
// MintAccess may return an error when input validation, dependency calls, or security checks fail.
// MintAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) MintAccess(accountID, role string, tokenVersion uint32, mfaVerified bool) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		AccountID:    accountID,
		Role:         role,
		TokenVersion: tokenVersion,
		MFAVerified:  mfaVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.config.AccessSecret)
}

// VerifyAccess describes the verifyaccess operation and its observable behavior.
//
// VerifyAccess may return an error when input validation, dependency calls, or security checks fail.
// VerifyAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenStr, claims, c.config.AccessSecret); err != nil {
		return nil, err
	}
	if claims.AccountID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// MintChallenge describes the mintchallenge operation and its observable behavior.
//
// The pending secret is only meaningful for the enroll-verify step; it travels
// inside the signed challenge so nothing unconfirmed touches durable storage.
//
// MintChallenge may return an error when input validation, dependency calls, or security checks fail.
// MintChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) MintChallenge(challengeID, accountID string, step ChallengeStep, pendingSecret string) (string, error) {
	switch step {
	case StepVerify, StepEnroll, StepEnrollVerify:
	default:
		return "", errors.New("unknown challenge step")
	}
	if step != StepEnrollVerify && pendingSecret != "" {
		return "", errors.New("pending secret is only valid for enroll-verify")
	}

	now := time.Now()
	claims := ChallengeClaims{
		ChallengeID:   challengeID,
		AccountID:     accountID,
		Step:          step,
		PendingSecret: pendingSecret,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.ChallengeTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.config.ChallengeSecret)
}

// VerifyChallenge describes the verifychallenge operation and its observable behavior.
//
// VerifyChallenge may return an error when input validation, dependency calls, or security checks fail.
// VerifyChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) VerifyChallenge(tokenStr string) (*ChallengeClaims, error) {
	claims := &ChallengeClaims{}
	if err := c.parse(tokenStr, claims, c.config.ChallengeSecret); err != nil {
		return nil, err
	}
	if claims.ChallengeID == "" || claims.AccountID == "" {
		return nil, ErrMalformed
	}
	switch claims.Step {
	case StepVerify, StepEnroll, StepEnrollVerify:
	default:
		return nil, ErrMalformed
	}
	return claims, nil
}

func (c *Codec) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return classify(err)
	}
	if !token.Valid {
		return ErrMalformed
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}

// NewOpaqueSecret describes the newopaquesecret operation and its observable behavior.
//
// NewOpaqueSecret may return an error when input validation, dependency calls, or security checks fail.
// NewOpaqueSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewOpaqueSecret() (string, error) {
	var raw [opaqueSecretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
