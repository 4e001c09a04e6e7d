// Package view holds the per-screen state containers. Each container mirrors
// the collections its screen needs and is refreshed by a watch hook; none of
// them writes to the store.
package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/watch"
)

// Source is the read side of the store.
// Satisfied by *store.Store.
type Source interface {
	Orders(ctx context.Context) ([]model.Order, error)
	Customers(ctx context.Context) ([]model.Customer, error)
	Coupons(ctx context.Context) ([]model.Coupon, error)
	Menus(ctx context.Context) ([]model.Menu, error)
}

// Refresher is a container that can reload itself from the store.
type Refresher interface {
	Refresh(ctx context.Context) error
	// Watches names the collection that triggers a reload, "" for all.
	Watches() string
}

// Run loads r once, then keeps it current until ctx is done.
func Run(ctx context.Context, bus *watch.Bus, interval time.Duration, r Refresher) {
	reload := func() {
		if err := r.Refresh(ctx); err != nil {
			slog.Warn("view refresh failed", "watches", r.Watches(), "error", err)
		}
	}
	reload()
	watch.Watch(ctx, bus, r.Watches(), interval, reload)
}

func filterStatus(orders []model.Order, status string) []model.Order {
	out := []model.Order{}
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
