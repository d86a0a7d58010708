// Package middleware provides HTTP middlewares for session authentication and logging.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "session"
)

// SessionResolver maps a session token to a user id. An anonymous token
// resolves to "" without error.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// WithSession reads the session cookie, resolves it and stores the user id and
// token in the request context. Requests without a live session pass through
// anonymously; a cookie that no longer resolves is cleared. A resolver failure
// is answered with 503.
func WithSession(resolver SessionResolver, secureCookie bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.Resolve(r.Context(), c.Value)
			if err != nil {
				log.Error("failed to resolve session", zap.Error(err))
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, c.Value)
			if userID != "" {
				ctx = context.WithValue(ctx, userKey, userID)
			} else {
				ClearSessionCookie(w, secureCookie)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromContext(r.Context()) == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext returns the signed-in user id, or "" for anonymous requests.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetSessionTokenFromContext returns the token presented by the browser, even
// when it no longer resolves to a user.
func GetSessionTokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}

// SetSessionCookie hands token to the browser. The cookie has no Max-Age;
// expiry is enforced server-side.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
