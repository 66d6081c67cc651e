package loan

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satyyam01/finsage/internal/middleware"
)

// SetupRoutes mounts the loan endpoints behind session validation.
func SetupRoutes(h *Handler, validator middleware.SessionValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(validator))

	r.Post("/analyze", h.AnalyzeHandler)

	return r
}
