package view

import (
	"context"
	"sync"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
)

// KitchenBoard is the three-column view of open orders.
type KitchenBoard struct {
	Pending   []model.Order `json:"pending"`
	Preparing []model.Order `json:"preparing"`
	Ready     []model.Order `json:"ready"`
	Selected  string        `json:"selected,omitempty"`
}

// Kitchen mirrors the orders collection for the kitchen board.
type Kitchen struct {
	src Source

	mu       sync.RWMutex
	orders   []model.Order
	selected string
}

// NewKitchen creates a kitchen container reading from src.
func NewKitchen(src Source) *Kitchen {
	return &Kitchen{src: src}
}

// Watches implements Refresher.
func (k *Kitchen) Watches() string { return enum.CollectionOrders }

// Refresh reloads the orders mirror.
func (k *Kitchen) Refresh(ctx context.Context) error {
	orders, err := k.src.Orders(ctx)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.orders = orders
	k.mu.Unlock()
	return nil
}

// Select highlights an order; "" clears the selection.
func (k *Kitchen) Select(number string) {
	k.mu.Lock()
	k.selected = number
	k.mu.Unlock()
}

// Selected returns the highlighted order number.
func (k *Kitchen) Selected() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.selected
}

// Board returns all three columns at once.
func (k *Kitchen) Board() KitchenBoard {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return KitchenBoard{
		Pending:   filterStatus(k.orders, enum.OrderStatusPending),
		Preparing: filterStatus(k.orders, enum.OrderStatusPreparing),
		Ready:     filterStatus(k.orders, enum.OrderStatusReady),
		Selected:  k.selected,
	}
}
