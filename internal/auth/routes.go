package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satyyam01/finsage/internal/middleware"
)

// SetupRoutes mounts the auth endpoints. Credential endpoints sit behind a
// per-IP throttle to slow down online guessing.
func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.ThrottleMiddleware(2, 5))
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)
	})

	r.Post("/logout", h.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(h.Store))
		r.Get("/me", h.MeHandler)
	})

	return r
}
