package middleware

import (
	"net/http"

	"github.com/nippo-hq/nippo/pkg/auth"
	"github.com/nippo-hq/nippo/pkg/contextkeys"
	"github.com/nippo-hq/nippo/pkg/httputil"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "nippo_session"

// SessionAuth guards handlers behind a valid session. The cookie's token is
// resolved through the session manager; failure short-circuits with 401
// before any domain logic, success attaches the identity to the request
// context.
type SessionAuth struct {
	sessions *auth.SessionManager
}

// NewSessionAuth creates the session auth guard
func NewSessionAuth(sessions *auth.SessionManager) *SessionAuth {
	return &SessionAuth{sessions: sessions}
}

// Handler wraps an HTTP handler with the session guard
func (m *SessionAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			httputil.WriteUnauthorized(w, "login required")
			return
		}

		identity, ok := m.sessions.Resolve(cookie.Value)
		if !ok {
			httputil.WriteUnauthorized(w, "login required")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the authenticated identity set by SessionAuth.
// The second return is false on unguarded paths.
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	return contextkeys.IdentityFrom(r.Context())
}

// SetSessionCookie writes the session cookie on login. HttpOnly and
// SameSite keep the token out of reach of scripts and cross-site posts.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// ClearSessionCookie expires the session cookie on logout
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
