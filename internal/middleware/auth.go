package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pliu/instamunicipal/internal/session"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// TokenCookie carries the access token between requests.
const TokenCookie = "instamunicipal_token"

// LoginPath is where unauthenticated visitors of protected paths are sent.
const LoginPath = "/login"

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *session.Store) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session attached by Session, or nil.
func FromContext(ctx context.Context) *session.Store {
	s, _ := ctx.Value(sessionKey).(*session.Store)
	return s
}

// Token reads the access token from the cookie or a bearer header.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// SetToken stores token in the session cookie.
func SetToken(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Session attaches the signed-in session of the request, if any. Stale
// tokens are dropped and the request continues signed out.
func Session(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := Token(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := m.Lookup(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("discarding stale session token")
				ClearToken(w)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireSession redirects signed-out requests to the login page, keeping
// the requested path in the from parameter.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if s == nil || s.Identity() == nil {
			target := LoginPath + "?from=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
