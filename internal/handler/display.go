package handler

import (
	"net/http"

	"github.com/burgerhub/api/internal/view"
	"github.com/go-chi/chi/v5"
)

// DisplayView is the pickup display state container.
// Satisfied by *view.Display.
type DisplayView interface {
	Board() view.DisplayBoard
}

// DisplayHandler serves the customer pickup display.
type DisplayHandler struct {
	display DisplayView
}

// NewDisplayHandler creates a new DisplayHandler.
func NewDisplayHandler(d DisplayView) *DisplayHandler {
	return &DisplayHandler{display: d}
}

// RegisterRoutes registers display endpoints. Expected to be mounted at /display.
func (h *DisplayHandler) RegisterRoutes(r chi.Router) {
	r.Get("/board", h.Board)
}

// Board handles GET /display/board.
func (h *DisplayHandler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.display.Board())
}
