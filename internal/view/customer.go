package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/model"
)

// Profile is everything the customer app shows for one member.
type Profile struct {
	Customer model.Customer `json:"customer"`
	Coupons  []model.Coupon `json:"coupons"`
	Orders   []model.Order  `json:"orders"`
}

// Customers indexes customers, their usable coupons and their orders.
type Customers struct {
	src Source
	now func() time.Time

	mu        sync.RWMutex
	customers map[string]model.Customer
	coupons   map[string][]model.Coupon
	orders    map[string][]model.Order
}

// NewCustomers creates a customer container reading from src. now may be nil.
func NewCustomers(src Source, now func() time.Time) *Customers {
	if now == nil {
		now = time.Now
	}
	return &Customers{src: src, now: now}
}

// Watches implements Refresher.
func (c *Customers) Watches() string { return "" }

// Refresh rebuilds the per-customer index.
func (c *Customers) Refresh(ctx context.Context) error {
	customers, err := c.src.Customers(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	coupons, err := c.src.Coupons(ctx)
	if err != nil {
		return fmt.Errorf("load coupons: %w", err)
	}
	orders, err := c.src.Orders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	byID := make(map[string]model.Customer, len(customers))
	for _, cu := range customers {
		byID[cu.ID] = cu
	}

	now := c.now()
	byOwner := make(map[string][]model.Coupon)
	for _, cp := range coupons {
		if cp.IsUsed || !cp.ExpiresAt.After(now) {
			continue
		}
		byOwner[cp.CustomerID] = append(byOwner[cp.CustomerID], cp)
	}

	// Newest first.
	byCustomer := make(map[string][]model.Order)
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if o.CustomerID == "" {
			continue
		}
		byCustomer[o.CustomerID] = append(byCustomer[o.CustomerID], o)
	}

	c.mu.Lock()
	c.customers, c.coupons, c.orders = byID, byOwner, byCustomer
	c.mu.Unlock()
	return nil
}

// Profile returns the member's current state.
func (c *Customers) Profile(id string) (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cu, ok := c.customers[id]
	if !ok {
		return Profile{}, false
	}
	p := Profile{
		Customer: cu,
		Coupons:  append([]model.Coupon{}, c.coupons[id]...),
		Orders:   append([]model.Order{}, c.orders[id]...),
	}
	return p, true
}
