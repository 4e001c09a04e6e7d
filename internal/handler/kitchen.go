package handler

import (
	"net/http"

	"github.com/burgerhub/api/internal/view"
	"github.com/go-chi/chi/v5"
)

// KitchenView is the kitchen state container.
// Satisfied by *view.Kitchen.
type KitchenView interface {
	Board() view.KitchenBoard
	Select(number string)
}

// KitchenHandler serves the kitchen board.
type KitchenHandler struct {
	kitchen KitchenView
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(k KitchenView) *KitchenHandler {
	return &KitchenHandler{kitchen: k}
}

// RegisterRoutes registers kitchen endpoints. Expected to be mounted at /kitchen.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/board", h.Board)
	r.Put("/selected", h.Select)
}

type selectOrderRequest struct {
	OrderNumber string `json:"orderNumber"`
}

// Board handles GET /kitchen/board.
func (h *KitchenHandler) Board(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.kitchen.Board())
}

// Select handles PUT /kitchen/selected. An empty number clears the selection.
func (h *KitchenHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.kitchen.Select(req.OrderNumber)
	writeJSON(w, http.StatusOK, h.kitchen.Board())
}
