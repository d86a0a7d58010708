// Package http provides the HTTP handlers of the ledger web app:
// account pages, the item list and editor, and daily statistics.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/kakeibo/internal/middleware"
	"github.com/atinyakov/kakeibo/internal/models"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account without signing it in.
	Register(ctx context.Context, account, password string) (*models.User, error)
	// Login verifies the credentials and issues a session.
	Login(ctx context.Context, account, password string) (*models.Session, error)
	// Logout destroys the session; unknown tokens are ignored.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles sign-up, sign-in and sign-out.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Logger records backend failures.
	Logger *zap.Logger
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// Root sends signed-in users to their items and everyone else to the login page.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserIDFromContext(r.Context()) != "" {
		http.Redirect(w, r, "/items", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm renders the login page context. A signed-in user is sent to /items.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserIDFromContext(r.Context()) != "" {
		http.Redirect(w, r, "/items", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, ErrorView{Error: r.URL.Query().Get("error")})
}

// Login verifies email and password and starts a session.
// Any session the browser already carried is destroyed first.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(w, r)
	if err != nil {
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), form.Get("email"), form.Get("password"))
	if err != nil {
		redirectWithError(w, r, h.Logger, "/login", err)
		return
	}

	if old := middleware.GetSessionTokenFromContext(r.Context()); old != "" {
		if err := h.AuthService.Logout(r.Context(), old); err != nil {
			h.Logger.Warn("failed to destroy previous session", zap.Error(err))
		}
	}

	middleware.SetSessionCookie(w, sess.Token, h.SecureCookie)
	h.Logger.Info("user signed in", zap.String("user", sess.UserID))
	http.Redirect(w, r, "/items", http.StatusFound)
}

// RegisterForm renders the registration page context.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ErrorView{Error: r.URL.Query().Get("error")})
}

// Register creates an account and sends the browser to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := formValues(w, r)
	if err != nil {
		http.Redirect(w, r, "/register?error=invalid", http.StatusFound)
		return
	}

	u, err := h.AuthService.Register(r.Context(), form.Get("email"), form.Get("password"))
	if err != nil {
		redirectWithError(w, r, h.Logger, "/register", err)
		return
	}

	h.Logger.Info("user registered", zap.String("user", u.ID))
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.GetSessionTokenFromContext(r.Context()); token != "" {
		if err := h.AuthService.Logout(r.Context(), token); err != nil {
			h.Logger.Error("failed to destroy session", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(w, h.SecureCookie)
	http.Redirect(w, r, "/login", http.StatusFound)
}
