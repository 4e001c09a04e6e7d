package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/metrics"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/store"
)

// DefaultPaymentDelay is how long the simulated payment terminal takes.
const DefaultPaymentDelay = 2 * time.Second

// Errors returned by the order service.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrMenuNotFound       = errors.New("menu not found")
	ErrMenuUnavailable    = errors.New("menu is not available")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidPayment     = errors.New("invalid payment_method")
	ErrPaymentCancelled   = errors.New("payment cancelled")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPickupUnresolved   = errors.New("pickup completion is not enabled")
	ErrOrderAlreadyClosed = errors.New("order is already completed")
)

// OrderStore is the narrow store interface used by the order service.
// Satisfied by *store.Store.
type OrderStore interface {
	Menu(ctx context.Context, id string) (model.Menu, error)
	Customer(ctx context.Context, id string) (model.Customer, error)
	CouponByCode(ctx context.Context, code string) (model.Coupon, error)
	Order(ctx context.Context, number string) (model.Order, error)
	PlaceOrder(ctx context.Context, p store.PlaceOrderParams) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, number, from, to string) (model.Order, error)
}

// OrderServiceConfig tunes checkout and lifecycle behaviour.
type OrderServiceConfig struct {
	// PaymentDelay simulates the card terminal. Zero means no delay.
	PaymentDelay time.Duration
	// AllowPickup enables READY -> COMPLETED.
	AllowPickup bool
}

// OrderService handles checkout and order lifecycle rules.
type OrderService struct {
	store   OrderStore
	cfg     OrderServiceConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewOrderService creates a new OrderService. m may be nil.
func NewOrderService(s OrderStore, cfg OrderServiceConfig, m *metrics.Metrics) *OrderService {
	return &OrderService{store: s, cfg: cfg, metrics: m, now: time.Now}
}

// CheckoutRequest is a kiosk cart ready for payment.
type CheckoutRequest struct {
	CustomerID    string
	Items         []model.CartItem
	CouponCode    string
	UsedPoints    int
	PaymentMethod string
}

// CheckoutResult is the committed order plus the points credited for it.
type CheckoutResult struct {
	Order         model.Order `json:"order"`
	EarnedPoints  int         `json:"earnedPoints"`
	PaymentMethod string      `json:"paymentMethod"`
}

// Quote is the priced cart before payment.
type Quote struct {
	Items          []model.OrderItem `json:"items"`
	TotalAmount    int               `json:"totalAmount"`
	CouponDiscount int               `json:"couponDiscount"`
	UsedPoints     int               `json:"usedPoints"`
	DiscountAmount int               `json:"discountAmount"`
	FinalAmount    int               `json:"finalAmount"`
	CouponID       string            `json:"couponId,omitempty"`
}

// Quote prices the cart against the current catalogue and validates the
// coupon and points without committing anything.
func (s *OrderService) Quote(ctx context.Context, req CheckoutRequest) (*Quote, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	q := &Quote{Items: make([]model.OrderItem, 0, len(req.Items))}
	for _, it := range req.Items {
		line, err := s.priceLine(ctx, it)
		if err != nil {
			return nil, err
		}
		q.Items = append(q.Items, line)
		q.TotalAmount += line.Price
	}

	available := 0
	if req.CustomerID != "" {
		c, err := s.store.Customer(ctx, req.CustomerID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get customer: %w", err)
		}
		available = c.Points
	}

	if req.CouponCode != "" {
		coupon, err := s.lookupCoupon(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		if err := ValidateCoupon(coupon, req.CustomerID, s.now()); err != nil {
			return nil, err
		}
		q.CouponID = coupon.ID
		q.CouponDiscount = DiscountAmount(q.TotalAmount, coupon)
	}

	if err := ValidatePoints(req.UsedPoints, available, q.TotalAmount-q.CouponDiscount); err != nil {
		return nil, err
	}
	q.UsedPoints = req.UsedPoints
	q.DiscountAmount = q.CouponDiscount + q.UsedPoints
	q.FinalAmount = FinalAmount(q.TotalAmount, q.DiscountAmount)
	return q, nil
}

// lookupCoupon returns nil for an unknown code so ValidateCoupon can report it.
func (s *OrderService) lookupCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := s.store.CouponByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

// priceLine re-prices a cart line from the stored menu.
func (s *OrderService) priceLine(ctx context.Context, it model.CartItem) (model.OrderItem, error) {
	if it.Quantity <= 0 {
		return model.OrderItem{}, ErrInvalidQuantity
	}
	menu, err := s.store.Menu(ctx, it.MenuID)
	if errors.Is(err, store.ErrNotFound) {
		return model.OrderItem{}, fmt.Errorf("%w: %s", ErrMenuNotFound, it.MenuID)
	}
	if err != nil {
		return model.OrderItem{}, fmt.Errorf("get menu: %w", err)
	}
	if !menu.IsAvailable {
		return model.OrderItem{}, fmt.Errorf("%w: %s", ErrMenuUnavailable, menu.Name)
	}
	if err := ValidateMenuOptions(menu, it.SelectedOptions); err != nil {
		return model.OrderItem{}, err
	}
	selected := it.SelectedOptions
	if selected == nil {
		selected = []string{}
	}
	return model.OrderItem{
		MenuID:          menu.ID,
		MenuName:        menu.Name,
		Quantity:        it.Quantity,
		SelectedOptions: selected,
		OptionDetails:   OptionDetails(menu, selected),
		Price:           LinePrice(menu, selected, it.Quantity),
	}, nil
}

// Checkout prices and validates the cart, waits out the simulated payment,
// then commits the order, coupon use, points and stock in one write.
// Cancelling ctx during the payment wait commits nothing.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	method := req.PaymentMethod
	if method == "" {
		method = enum.PaymentMethodCard
	}
	if !isValidPaymentMethod(method) {
		return nil, ErrInvalidPayment
	}

	q, err := s.Quote(ctx, req)
	if err != nil {
		s.metrics.CheckoutRejected(rejectionReason(err))
		return nil, err
	}

	if err := s.pay(ctx); err != nil {
		s.metrics.CheckoutRejected("cancelled")
		return nil, err
	}

	earned := 0
	if req.CustomerID != "" {
		earned = EarnedPoints(q.FinalAmount)
	}

	order, err := s.store.PlaceOrder(ctx, store.PlaceOrderParams{
		Order: model.Order{
			CustomerID:     req.CustomerID,
			Items:          q.Items,
			TotalAmount:    q.TotalAmount,
			DiscountAmount: q.DiscountAmount,
			FinalAmount:    q.FinalAmount,
			CouponID:       q.CouponID,
			UsedPoints:     q.UsedPoints,
			Status:         enum.OrderStatusPending,
			CreatedAt:      s.now(),
		},
		EarnedPoints: earned,
	})
	switch {
	case errors.Is(err, store.ErrCouponUnavailable):
		s.metrics.CheckoutRejected("coupon")
		return nil, s.couponRejection(ctx, req)
	case errors.Is(err, store.ErrInsufficientPoints):
		s.metrics.CheckoutRejected("points")
		return nil, ErrInsufficientPoints
	case err != nil:
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.metrics.OrderPlaced()
	slog.Info("order placed",
		"order_number", order.OrderNumber,
		"final_amount", order.FinalAmount,
		"payment_method", method,
		"earned_points", earned,
	)
	return &CheckoutResult{Order: order, EarnedPoints: earned, PaymentMethod: method}, nil
}

// couponRejection re-validates the cart's coupon after the store refused it
// at commit time, so the caller learns whether it was spent or expired.
func (s *OrderService) couponRejection(ctx context.Context, req CheckoutRequest) error {
	c, err := s.lookupCoupon(ctx, req.CouponCode)
	if err != nil {
		return err
	}
	if err := ValidateCoupon(c, req.CustomerID, s.now()); err != nil {
		return err
	}
	return ErrCouponUsed
}

func (s *OrderService) pay(ctx context.Context) error {
	if s.cfg.PaymentDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.cfg.PaymentDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrPaymentCancelled, ctx.Err())
	case <-t.C:
		return nil
	}
}

func isValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCard, enum.PaymentMethodCash, enum.PaymentMethodMobile:
		return true
	}
	return false
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrCouponNotFound), errors.Is(err, ErrCouponNotOwned),
		errors.Is(err, ErrCouponUsed), errors.Is(err, ErrCouponExpired):
		return "coupon"
	case errors.Is(err, ErrInvalidPoints), errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrPointsOverLimit):
		return "points"
	case errors.Is(err, ErrRequiredOption):
		return "options"
	case errors.Is(err, ErrMenuNotFound), errors.Is(err, ErrMenuUnavailable),
		errors.Is(err, ErrInvalidQuantity):
		return "menu"
	}
	return "other"
}

// --- Status lifecycle ---

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing},
	enum.OrderStatusPreparing: {enum.OrderStatusReady},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted},
}

// nextStatus is the single forward step from each open status.
var nextStatus = map[string]string{
	enum.OrderStatusPending:   enum.OrderStatusPreparing,
	enum.OrderStatusPreparing: enum.OrderStatusReady,
	enum.OrderStatusReady:     enum.OrderStatusCompleted,
}

// validateStatusTransition checks if the transition from current to next is allowed.
func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}

// UpdateStatus moves an order forward. READY -> COMPLETED is only accepted
// when pickup completion is enabled.
func (s *OrderService) UpdateStatus(ctx context.Context, number, next string) (model.Order, error) {
	order, err := s.store.Order(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	if err := validateStatusTransition(order.Status, next); err != nil {
		return model.Order{}, err
	}
	if next == enum.OrderStatusCompleted && !s.cfg.AllowPickup {
		return model.Order{}, ErrPickupUnresolved
	}

	// The write only lands if nobody moved the order since it was read.
	updated, err := s.store.UpdateOrderStatus(ctx, number, order.Status, next)
	if errors.Is(err, store.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	if errors.Is(err, store.ErrStatusConflict) {
		return model.Order{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}
	s.metrics.StatusTransition(next)
	slog.Info("order status updated", "order_number", number, "from", order.Status, "to", next)
	return updated, nil
}

// Advance moves an order one step forward along its lifecycle.
func (s *OrderService) Advance(ctx context.Context, number string) (model.Order, error) {
	order, err := s.store.Order(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	next, ok := nextStatus[order.Status]
	if !ok {
		return model.Order{}, ErrOrderAlreadyClosed
	}
	return s.UpdateStatus(ctx, number, next)
}
