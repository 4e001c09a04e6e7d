package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/burgerhub/api/internal/auth"
	"github.com/burgerhub/api/internal/middleware"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/service"
	"github.com/burgerhub/api/internal/store"
	"github.com/burgerhub/api/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// KioskSessions is the kiosk view used by the kiosk handlers.
// Satisfied by *view.Kiosk.
type KioskSessions interface {
	Menu(id string) (model.Menu, bool)
	Cart(sessionID string) *view.Cart
	EndSession(sessionID string)
}

// CheckoutServicer defines the service methods needed by the kiosk.
// Satisfied by *service.OrderService.
type CheckoutServicer interface {
	Quote(ctx context.Context, req service.CheckoutRequest) (*service.Quote, error)
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// KioskStore defines the store lookups needed by the kiosk.
// Satisfied by *store.Store.
type KioskStore interface {
	Customer(ctx context.Context, id string) (model.Customer, error)
	CouponByCode(ctx context.Context, code string) (model.Coupon, error)
}

// KioskHandler handles the self-service kiosk: sessions, the cart and checkout.
type KioskHandler struct {
	kiosk  KioskSessions
	svc    CheckoutServicer
	store  KioskStore
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewKioskHandler creates a new KioskHandler. Session tokens are signed with
// secret and live for ttl.
func NewKioskHandler(kiosk KioskSessions, svc CheckoutServicer, st KioskStore, secret string, ttl time.Duration) *KioskHandler {
	return &KioskHandler{kiosk: kiosk, svc: svc, store: st, secret: secret, ttl: ttl, now: time.Now}
}

// RegisterRoutes registers kiosk endpoints on the given Chi router.
// Expected to be mounted at /kiosk.
func (h *KioskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.StartSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.secret))
		r.Delete("/sessions", h.EndSession)
		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Get("/cart/quote", h.QuoteCart)
		r.Post("/cart/items", h.AddItem)
		r.Patch("/cart/items/{menuId}", h.UpdateItem)
		r.Delete("/cart/items/{menuId}", h.RemoveItem)
		r.Put("/cart/customer", h.SetCustomer)
		r.Post("/cart/coupon", h.ApplyCoupon)
		r.Delete("/cart/coupon", h.RemoveCoupon)
		r.Put("/cart/points", h.SetPoints)
		r.Post("/checkout", h.Checkout)
	})
}

// --- Request / Response types ---

type startSessionRequest struct {
	KioskID    string `json:"kioskId"`
	CustomerID string `json:"customerId"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type addItemRequest struct {
	MenuID          string   `json:"menuId" validate:"required"`
	Quantity        int      `json:"quantity" validate:"gte=1"`
	SelectedOptions []string `json:"selectedOptions"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type setCustomerRequest struct {
	CustomerID string `json:"customerId"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type setPointsRequest struct {
	Points int `json:"points" validate:"gte=0"`
}

type checkoutRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=CARD CASH MOBILE"`
}

// --- Handlers ---

// StartSession handles POST /kiosk/sessions. It opens an empty cart and
// returns the token that addresses it.
func (h *KioskHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	if req.CustomerID != "" && !h.customerExists(w, r, req.CustomerID) {
		return
	}

	sessionID := uuid.New()
	token, err := auth.GenerateSessionToken(h.secret, sessionID, req.KioskID, h.ttl)
	if err != nil {
		log.Printf("ERROR: generate session token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	cart := h.kiosk.Cart(sessionID.String())
	cart.SetCustomer(req.CustomerID)

	ttl := h.ttl
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: h.now().Add(ttl),
	})
}

// EndSession handles DELETE /kiosk/sessions.
func (h *KioskHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	h.kiosk.EndSession(claims.SessionID.String())
	w.WriteHeader(http.StatusNoContent)
}

// GetCart handles GET /kiosk/cart.
func (h *KioskHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart(r).Snapshot())
}

// ClearCart handles DELETE /kiosk/cart.
func (h *KioskHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	cart.Clear()
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// QuoteCart handles GET /kiosk/cart/quote: the cart priced with its coupon
// and points applied.
func (h *KioskHandler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quote(r.Context(), h.cart(r).CheckoutRequest(""))
	if err != nil {
		writeServiceError(w, "quote cart", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// AddItem handles POST /kiosk/cart/items.
func (h *KioskHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	menu, ok := h.kiosk.Menu(req.MenuID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
		return
	}
	if !menu.IsAvailable {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": service.ErrMenuUnavailable.Error()})
		return
	}
	if err := service.ValidateMenuOptions(menu, req.SelectedOptions); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cart := h.cart(r)
	cart.Add(model.CartItem{
		MenuID:          menu.ID,
		MenuName:        menu.Name,
		Quantity:        req.Quantity,
		SelectedOptions: req.SelectedOptions,
		OptionDetails:   service.OptionDetails(menu, req.SelectedOptions),
		UnitPrice:       service.UnitPrice(menu, req.SelectedOptions),
	})
	writeJSON(w, http.StatusCreated, cart.Snapshot())
}

// UpdateItem handles PATCH /kiosk/cart/items/{menuId}. A quantity of zero
// removes the line.
func (h *KioskHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cart := h.cart(r)
	if !cart.SetQuantity(chi.URLParam(r, "menuId"), req.Quantity) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
		return
	}
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// RemoveItem handles DELETE /kiosk/cart/items/{menuId}.
func (h *KioskHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	if !cart.Remove(chi.URLParam(r, "menuId")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
		return
	}
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// SetCustomer handles PUT /kiosk/cart/customer. An empty id turns the cart
// back into a guest cart; the selected coupon and points are dropped either way.
func (h *KioskHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req setCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.CustomerID != "" && !h.customerExists(w, r, req.CustomerID) {
		return
	}

	cart := h.cart(r)
	cart.SetCustomer(req.CustomerID)
	cart.SetCoupon("", "")
	cart.SetUsedPoints(0)
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// ApplyCoupon handles POST /kiosk/cart/coupon.
func (h *KioskHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cart := h.cart(r)
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
	if err := service.ValidateCoupon(coupon, cart.Snapshot().CustomerID, h.now()); err != nil {
		writeServiceError(w, "apply coupon", err)
		return
	}

	cart.SetCoupon(coupon.ID, coupon.Code)
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// RemoveCoupon handles DELETE /kiosk/cart/coupon.
func (h *KioskHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	cart.SetCoupon("", "")
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// SetPoints handles PUT /kiosk/cart/points. The amount is checked against the
// customer's balance and what is left of the total after the coupon.
func (h *KioskHandler) SetPoints(w http.ResponseWriter, r *http.Request) {
	var req setPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cart := h.cart(r)
	if req.Points > 0 {
		checkout := cart.CheckoutRequest("")
		if checkout.CustomerID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "points require a customer"})
			return
		}
		checkout.UsedPoints = req.Points
		if _, err := h.svc.Quote(r.Context(), checkout); err != nil {
			writeServiceError(w, "quote points", err)
			return
		}
	}

	cart.SetUsedPoints(req.Points)
	writeJSON(w, http.StatusOK, cart.Snapshot())
}

// Checkout handles POST /kiosk/checkout. On success the order is remembered
// as the cart's last order and the cart is emptied.
func (h *KioskHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	cart := h.cart(r)
	result, err := h.svc.Checkout(r.Context(), cart.CheckoutRequest(req.PaymentMethod))
	if err != nil {
		writeServiceError(w, "checkout", err)
		return
	}

	cart.SetLastOrder(result.Order)
	cart.Clear()
	writeJSON(w, http.StatusCreated, result)
}

func (h *KioskHandler) cart(r *http.Request) *view.Cart {
	claims := middleware.ClaimsFromContext(r.Context())
	return h.kiosk.Cart(claims.SessionID.String())
}

func (h *KioskHandler) customerExists(w http.ResponseWriter, r *http.Request, id string) bool {
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
