package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authcore "github.com/VortexDevX/E-Commerce-sub001"
)

type identityContextKey struct{}

// IdentityFromContext describes the identityfromcontext operation and its observable behavior.
//
// IdentityFromContext does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return identity, ok
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Rejects requests without a valid bearer token and stores the Identity in
// the request context for downstream handlers.
//
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Authenticate(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.Authenticate(requestContext(r), tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticateOptional describes the authenticateoptional operation and its observable behavior.
//
// Anonymous requests pass through with no identity in context; revoked or
// blocked tokens are still rejected.
//
// AuthenticateOptional does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func AuthenticateOptional(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, _ := bearerToken(r.Header.Get("Authorization"))
			identity, err := engine.AuthenticateOptional(requestContext(r), tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require describes the require operation and its observable behavior.
//
// Runs the engine's capability check for the request identity. Must be
// mounted after Authenticate.
//
// Require does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Require(engine *authcore.Engine, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			err := engine.Authorize(r.Context(), identity, permissions...)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, authcore.ErrMFARequired):
				http.Error(w, "mfa required", http.StatusForbidden)
			case errors.Is(err, authcore.ErrUnauthorized):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func requestContext(r *http.Request) context.Context {
	ctx := authcore.WithClientIP(r.Context(), clientIP(r))
	return authcore.WithUserAgent(ctx, r.UserAgent())
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}
