package authcore

import "context"

// RateLimit describes the ratelimit operation and its observable behavior.
//
// Exposed for transport layers that guard endpoints outside the engine's own
// flows (contact forms, event tracking). Keys are independent budgets,
// typically the caller IP plus a normalized identity.
//
// RateLimit may return an error when input validation, dependency calls, or security checks fail.
// RateLimit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RateLimit(ctx context.Context, action string, keys ...string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.allow(ctx, action, keys...)
}

func (e *Engine) allow(ctx context.Context, action string, keys ...string) error {
	err := e.limiter.Allow(ctx, action, keys...)
	if err != nil {
		e.emitAudit(ctx, auditEventRateLimited, false, "", "", err, func() map[string]string {
			return map[string]string{"action": action}
		})
	}
	return err
}
