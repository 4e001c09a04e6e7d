package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/service"
)

// Admin caches every collection and the dashboard computed from them.
type Admin struct {
	src Source
	now func() time.Time

	mu        sync.RWMutex
	orders    []model.Order
	menus     []model.Menu
	customers []model.Customer
	coupons   []model.Coupon
	dashboard service.Dashboard
}

// NewAdmin creates an admin container reading from src. now decides both
// the reference instant and the local day; nil means time.Now.
func NewAdmin(src Source, now func() time.Time) *Admin {
	if now == nil {
		now = time.Now
	}
	return &Admin{src: src, now: now}
}

// Watches implements Refresher.
func (a *Admin) Watches() string { return "" }

// Refresh reloads every collection and recomputes the dashboard.
func (a *Admin) Refresh(ctx context.Context) error {
	orders, err := a.src.Orders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	menus, err := a.src.Menus(ctx)
	if err != nil {
		return fmt.Errorf("load menus: %w", err)
	}
	customers, err := a.src.Customers(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	coupons, err := a.src.Coupons(ctx)
	if err != nil {
		return fmt.Errorf("load coupons: %w", err)
	}

	d := service.Aggregate(orders, menus, a.now())

	a.mu.Lock()
	a.orders, a.menus, a.customers, a.coupons = orders, menus, customers, coupons
	a.dashboard = d
	a.mu.Unlock()
	return nil
}

// Recalculate recomputes the dashboard from the cached collections, for when
// the day rolls over without any write.
func (a *Admin) Recalculate() service.Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dashboard = service.Aggregate(a.orders, a.menus, a.now())
	return a.dashboard
}

// Dashboard returns the cached dashboard.
func (a *Admin) Dashboard() service.Dashboard {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dashboard
}

// StatusCounts returns the live count of orders per status.
func (a *Admin) StatusCounts() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return service.StatusCounts(a.orders)
}

// Counts reports how many records of each collection are cached.
func (a *Admin) Counts() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return map[string]int{
		"orders":    len(a.orders),
		"menus":     len(a.menus),
		"customers": len(a.customers),
		"coupons":   len(a.coupons),
	}
}
