package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the request/response dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog/options", h.HandleOptions)
	r.Get("/session", h.HandleSession)

	r.Get("/dashboard", h.HandleRender)
	r.Post("/dashboard", h.HandleRender)
	r.Get("/dashboard/sql", h.HandleSQL)
	r.Get("/dashboard/export.xlsx", h.HandleExport)
}

// RegisterStreamRoutes registers long-lived routes that must not sit behind
// a request timeout
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/dashboard/ws", h.HandleWebSocket)
}
