package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/service"
	"github.com/burgerhub/api/internal/store"
	"github.com/go-chi/chi/v5"
)

// CouponStore defines the store lookup needed by coupon handlers.
// Satisfied by *store.Store.
type CouponStore interface {
	CouponByCode(ctx context.Context, code string) (model.Coupon, error)
}

// CouponHandler handles coupon endpoints.
type CouponHandler struct {
	store CouponStore
	now   func() time.Time
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(store CouponStore) *CouponHandler {
	return &CouponHandler{store: store, now: time.Now}
}

// RegisterRoutes registers coupon endpoints. Expected to be mounted at /coupons.
func (h *CouponHandler) RegisterRoutes(r chi.Router) {
	r.Post("/validate", h.Validate)
}

type validateCouponRequest struct {
	Code       string `json:"code" validate:"required"`
	CustomerID string `json:"customerId"`
	Total      int    `json:"total" validate:"gte=0"`
}

type validateCouponResponse struct {
	Valid    bool          `json:"valid"`
	Message  string        `json:"message,omitempty"`
	Coupon   *model.Coupon `json:"coupon,omitempty"`
	Discount int           `json:"discount"`
}

// Validate handles POST /coupons/validate. A coupon that cannot be redeemed
// is a normal result carrying a message, not an HTTP error. When total is
// given the response includes the discount it would earn.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var coupon *model.Coupon
	c, err := h.store.CouponByCode(r.Context(), req.Code)
	switch {
	case err == nil:
		coupon = &c
	case !errors.Is(err, store.ErrNotFound):
		log.Printf("ERROR: get coupon by code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := service.ValidateCoupon(coupon, req.CustomerID, h.now()); err != nil {
		writeJSON(w, http.StatusOK, validateCouponResponse{Valid: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateCouponResponse{
		Valid:    true,
		Coupon:   coupon,
		Discount: service.DiscountAmount(req.Total, coupon),
	})
}
