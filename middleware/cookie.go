package middleware

import (
	"net/http"
	"time"
)

// RefreshCookieName is an exported constant or variable used by the access-control engine.
const RefreshCookieName = "refresh_secret"

// SetRefreshCookie describes the setrefreshcookie operation and its observable behavior.
//
// The refresh secret never travels in a response body or an Authorization
// header: HttpOnly, SameSite strict, scoped to the refresh path, Secure when
// the deployment runs in production.
//
// SetRefreshCookie does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func SetRefreshCookie(w http.ResponseWriter, secret, path string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    secret,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie describes the clearrefreshcookie operation and its observable behavior.
//
// ClearRefreshCookie does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ClearRefreshCookie(w http.ResponseWriter, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshSecretFromRequest describes the refreshsecretfromrequest operation and its observable behavior.
//
// RefreshSecretFromRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func RefreshSecretFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
