package handler

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/store"
	"github.com/burgerhub/api/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// CustomerStore defines the store methods needed by customer handlers.
// Satisfied by *store.Store; narrow interface for testability.
type CustomerStore interface {
	Customer(ctx context.Context, id string) (model.Customer, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
	CouponsByCustomer(ctx context.Context, customerID string) ([]model.Coupon, error)
	Coupon(ctx context.Context, id string) (model.Coupon, error)
	UpdateCustomerPoints(ctx context.Context, customerID string, delta int) (model.Customer, error)
}

// ProfileReader is the customer state container.
// Satisfied by *view.Customers.
type ProfileReader interface {
	Profile(id string) (view.Profile, bool)
}

// CustomerHandler serves the customer app.
type CustomerHandler struct {
	profiles ProfileReader
	store    CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(profiles ProfileReader, store CustomerStore) *CustomerHandler {
	return &CustomerHandler{profiles: profiles, store: store}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
// Expected to be mounted at /customers.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}", h.Get)
	r.Get("/{id}/orders", h.ListOrders)
	r.Get("/{id}/coupons", h.ListCoupons)
	r.Get("/{id}/coupons/{cid}/qr", h.CouponQR)
	r.Post("/{id}/points", h.AdjustPoints)
}

type adjustPointsRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

// Get handles GET /customers/{id}: the member with their usable coupons and
// order history.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profiles.Profile(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListOrders handles GET /customers/{id}/orders, newest first.
func (h *CustomerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.customerExists(w, r, id) {
		return
	}
	orders, err := h.store.OrdersByCustomer(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list customer orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListCoupons handles GET /customers/{id}/coupons. Used and expired coupons
// are left out.
func (h *CustomerHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.customerExists(w, r, id) {
		return
	}
	coupons, err := h.store.CouponsByCustomer(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list customer coupons: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// CouponQR handles GET /customers/{id}/coupons/{cid}/qr. The PNG encodes the
// redemption code for the kiosk scanner; ?size= sets the edge in pixels.
func (h *CustomerHandler) CouponQR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < minQRSize || v > maxQRSize {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "size must be between 64 and 1024"})
			return
		}
		size = v
	}

	coupon, err := h.store.Coupon(r.Context(), chi.URLParam(r, "cid"))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("ERROR: get coupon: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err != nil || coupon.CustomerID != chi.URLParam(r, "id") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "coupon not found"})
		return
	}

	img, err := couponQR(coupon.Code, size)
	if err != nil {
		log.Printf("ERROR: encode coupon qr: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// AdjustPoints handles POST /customers/{id}/points. The balance never goes
// below zero.
func (h *CustomerHandler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req adjustPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	c, err := h.store.UpdateCustomerPoints(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	if err != nil {
		log.Printf("ERROR: update customer points: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) customerExists(w http.ResponseWriter, r *http.Request, id string) bool {
	_, err := h.store.Customer(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return false
	}
	if err != nil {
		log.Printf("ERROR: get customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return false
	}
	return true
}

func couponQR(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
