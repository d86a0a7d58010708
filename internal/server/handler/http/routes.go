package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/kakeibo/internal/middleware"
)

// NewRouter constructs the HTTP handler of the ledger app.
//
// Middleware chain (applied in order):
//  1. RequestID, RealIP
//  2. WithRequestLogging(logger)
//  3. Recoverer
//  4. AllowContentType: form, multipart and JSON bodies
//  5. WithSession(sessions, authHandler.SecureCookie, logger)
//
// Routes under /items additionally require a signed-in user; anonymous
// requests are redirected to /login.
func NewRouter(
	authHandler *AuthHandler,
	itemHandler *ItemHandler,
	sessions middleware.SessionResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType(
		"application/x-www-form-urlencoded",
		"multipart/form-data",
		"application/json",
	))
	r.Use(middleware.WithSession(sessions, authHandler.SecureCookie, logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w)
	})

	r.Get("/", authHandler.Root)
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/register", authHandler.RegisterForm)
	r.Post("/register", authHandler.Register)
	r.Get("/logout", authHandler.Logout)
	r.Post("/logout", authHandler.Logout)

	r.Route("/items", func(r chi.Router) {
		r.Use(middleware.RequireLogin)

		r.Get("/", itemHandler.List)
		r.Post("/", itemHandler.Create)
		r.Get("/detail", itemHandler.Detail)
		r.Get("/stats", itemHandler.Stats)
		r.Get("/edit/{id}", itemHandler.EditForm)
		r.Post("/edit/{id}", itemHandler.Update)
		r.Post("/delete/{id}", itemHandler.Delete)
	})

	return r
}
