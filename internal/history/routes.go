package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satyyam01/finsage/internal/middleware"
)

// SetupRoutes mounts the history endpoints. Everything requires a validated
// session.
func SetupRoutes(h *Handler, validator middleware.SessionValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(validator))

	r.Get("/analyses", h.ListAnalysesHandler)
	r.Get("/chat", h.ListChatHandler)

	return r
}
