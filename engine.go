package authcore

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
	"github.com/VortexDevX/E-Commerce-sub001/internal/stores"
	"github.com/VortexDevX/E-Commerce-sub001/ledger"
	"github.com/VortexDevX/E-Commerce-sub001/rate"
	"github.com/VortexDevX/E-Commerce-sub001/scope"
	"github.com/VortexDevX/E-Commerce-sub001/token"
)

// Engine defines a public type used by the authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	logger     *slog.Logger
	accounts   AccountProvider
	ledger     *ledger.Store
	codec      *token.Codec
	hasher     passwordHasher
	registry   *scope.Registry
	limiter    *rate.Limiter
	challenges *stores.ChallengeStore
	totp       *totpManager
	audit      *auditDispatcher
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// storeCtx bounds every store round trip so one slow backend cannot pin a
// request goroutine.
func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Store.Timeout)
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}

func (e *Engine) sessionMeta(ctx context.Context, mfaVerified bool) ledger.Metadata {
	return ledger.Metadata{
		IP:          clientIPFromContext(ctx),
		UserAgent:   userAgentFromContext(ctx),
		MFAVerified: mfaVerified,
	}
}

// issueSession opens a fresh refresh family and mints the matching access
// token. Used by login and by the MFA flows once the factor clears.
func (e *Engine) issueSession(ctx context.Context, acct *accounts.Account, mfaVerified bool) (*LoginResult, *ledger.Session, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	secret, sess, err := e.ledger.OpenFamily(sctx, acct.ID, e.config.Session.RefreshTTL, e.sessionMeta(ctx, mfaVerified))
	if err != nil {
		return nil, nil, err
	}

	access, err := e.codec.MintAccess(acct.ID, string(acct.Role), acct.TokenVersion, mfaVerified)
	if err != nil {
		return nil, nil, err
	}

	return &LoginResult{
		AccessToken:   access,
		RefreshSecret: secret,
	}, sess, nil
}

// revokeAllSessions bumps the token version and retires every refresh family
// for the account. Returns the new token version.
func (e *Engine) revokeAllSessions(ctx context.Context, accountID string) (uint32, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	version, err := e.accounts.BumpTokenVersion(sctx, accountID)
	if err != nil {
		return 0, err
	}
	if err := e.ledger.RevokeAllForAccount(sctx, accountID); err != nil {
		return 0, err
	}
	return version, nil
}

func (e *Engine) roleRequiresMFA(role accounts.Role) bool {
	for _, required := range e.config.MFA.RequiredRoles {
		if role == required {
			return true
		}
	}
	return false
}

func (e *Engine) challengeTTL() time.Duration {
	return e.config.Token.ChallengeTTL
}

func challengeExpiry(ttl time.Duration) int64 {
	return time.Now().Add(ttl).Unix()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
