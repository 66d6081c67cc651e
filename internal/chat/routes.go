package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satyyam01/finsage/internal/middleware"
)

// SetupRoutes mounts the chat endpoint behind session validation. Reading
// the transcript lives under /history.
func SetupRoutes(h *Handler, validator middleware.SessionValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(validator))

	r.Post("/", h.SendHandler)

	return r
}
