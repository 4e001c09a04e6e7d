package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/store"
	"github.com/go-chi/chi/v5"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	UpdateStatus(ctx context.Context, number, next string) (model.Order, error)
	Advance(ctx context.Context, number string) (model.Order, error)
}

// OrderStore defines the store methods needed by order read handlers.
// Satisfied by *store.Store; narrow interface for testability.
type OrderStore interface {
	Orders(ctx context.Context) ([]model.Order, error)
	Order(ctx context.Context, number string) (model.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{number}", h.Get)
	r.Patch("/{number}/status", h.UpdateStatus)
	r.Post("/{number}/advance", h.Advance)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PREPARING READY COMPLETED"`
}

// List handles GET /orders, optionally filtered by ?status=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !isOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	orders, err := h.store.Orders(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /orders/{number}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.store.Order(r.Context(), chi.URLParam(r, "number"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/{number}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "number"), req.Status)
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Advance handles POST /orders/{number}/advance, the kitchen's one-tap
// "next step" button.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Advance(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, "advance order", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func isOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusCompleted:
		return true
	}
	return false
}
