package view

import (
	"context"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/service"
)

// Cart is one kiosk session's basket. The zero value is an empty cart.
type Cart struct {
	mu         sync.Mutex
	items      []model.CartItem
	customerID string
	couponID   string
	couponCode string
	usedPoints int
	lastOrder  *model.Order
}

// CartSnapshot is a copy of a cart's state.
type CartSnapshot struct {
	Items      []model.CartItem `json:"items"`
	CustomerID string           `json:"customerId,omitempty"`
	CouponID   string           `json:"couponId,omitempty"`
	CouponCode string           `json:"couponCode,omitempty"`
	UsedPoints int              `json:"usedPoints"`
	Total      int              `json:"total"`
	LastOrder  *model.Order     `json:"lastOrder,omitempty"`
}

// Add puts item in the cart. A line for the same menu already in the cart
// absorbs the quantity instead of adding a second line.
func (c *Cart) Add(item model.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].MenuID == item.MenuID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// Remove drops the line for menuID. It reports whether a line was removed.
func (c *Cart) Remove(menuID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].MenuID == menuID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity changes a line's quantity; zero or less removes the line.
// It reports whether the line exists.
func (c *Cart) SetQuantity(menuID string, qty int) bool {
	if qty <= 0 {
		return c.Remove(menuID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].MenuID == menuID {
			c.items[i].Quantity = qty
			return true
		}
	}
	return false
}

// Clear empties the cart and drops the selected coupon and points.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.couponID = ""
	c.couponCode = ""
	c.usedPoints = 0
}

// SetCustomer attaches a loyalty member to the cart; "" makes it a guest cart.
func (c *Cart) SetCustomer(id string) {
	c.mu.Lock()
	c.customerID = id
	c.mu.Unlock()
}

// SetCoupon selects a coupon; empty values clear the selection.
func (c *Cart) SetCoupon(id, code string) {
	c.mu.Lock()
	c.couponID, c.couponCode = id, code
	c.mu.Unlock()
}

// SetUsedPoints records the points the customer wants to redeem.
func (c *Cart) SetUsedPoints(points int) {
	c.mu.Lock()
	c.usedPoints = points
	c.mu.Unlock()
}

// SetLastOrder remembers the most recent order placed from this cart.
func (c *Cart) SetLastOrder(o model.Order) {
	c.mu.Lock()
	c.lastOrder = &o
	c.mu.Unlock()
}

// Total is the sum of the line totals.
func (c *Cart) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return service.CartTotal(c.items)
}

// Snapshot copies the cart state.
func (c *Cart) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]model.CartItem, len(c.items))
	copy(items, c.items)
	s := CartSnapshot{
		Items:      items,
		CustomerID: c.customerID,
		CouponID:   c.couponID,
		CouponCode: c.couponCode,
		UsedPoints: c.usedPoints,
		Total:      service.CartTotal(c.items),
	}
	if c.lastOrder != nil {
		o := *c.lastOrder
		s.LastOrder = &o
	}
	return s
}

// CheckoutRequest turns the cart into a checkout request.
func (c *Cart) CheckoutRequest(paymentMethod string) service.CheckoutRequest {
	s := c.Snapshot()
	return service.CheckoutRequest{
		CustomerID:    s.CustomerID,
		Items:         s.Items,
		CouponCode:    s.CouponCode,
		UsedPoints:    s.UsedPoints,
		PaymentMethod: paymentMethod,
	}
}

// Kiosk holds the menu mirror shared by all kiosks and one cart per session.
type Kiosk struct {
	src Source

	mu       sync.RWMutex
	menus    []model.Menu
	sessions map[string]*Cart
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewKiosk creates a kiosk container reading from src.
func NewKiosk(src Source) *Kiosk {
	return &Kiosk{
		src:      src,
		sessions: make(map[string]*Cart),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Watches implements Refresher.
func (k *Kiosk) Watches() string { return enum.CollectionMenus }

// Refresh reloads the menu mirror.
func (k *Kiosk) Refresh(ctx context.Context) error {
	menus, err := k.src.Menus(ctx)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.menus = menus
	k.mu.Unlock()
	return nil
}

// Menus returns the available menus, limited to category when non-empty.
func (k *Kiosk) Menus(category string) []model.Menu {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := []model.Menu{}
	for _, m := range k.menus {
		if !m.IsAvailable {
			continue
		}
		if category != "" && m.Category != category {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Menu returns a menu from the mirror.
func (k *Kiosk) Menu(id string) (model.Menu, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, m := range k.menus {
		if m.ID == id {
			return m, true
		}
	}
	return model.Menu{}, false
}

// Cart returns the session's cart, creating it on first use.
func (k *Kiosk) Cart(sessionID string) *Cart {
	k.mu.Lock()
	defer k.mu.Unlock()
	c, ok := k.sessions[sessionID]
	if !ok {
		c = &Cart{}
		k.sessions[sessionID] = c
	}
	k.lastSeen[sessionID] = k.now()
	return c
}

// EndSession forgets the session's cart.
func (k *Kiosk) EndSession(sessionID string) {
	k.mu.Lock()
	delete(k.sessions, sessionID)
	delete(k.lastSeen, sessionID)
	k.mu.Unlock()
}

// SweepIdle drops carts not touched for idle and returns how many went.
func (k *Kiosk) SweepIdle(idle time.Duration) int {
	cutoff := k.now().Add(-idle)
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for id, seen := range k.lastSeen {
		if seen.Before(cutoff) {
			delete(k.sessions, id)
			delete(k.lastSeen, id)
			n++
		}
	}
	return n
}

// Sessions returns the number of live carts.
func (k *Kiosk) Sessions() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.sessions)
}
