package view

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
)

// DisplayBoard is what the pickup screen shows.
type DisplayBoard struct {
	Calling         *model.Order  `json:"calling"`
	Ready           []model.Order `json:"ready"`
	AverageWaitMins int           `json:"averageWaitMinutes"`
}

// Display tracks READY orders for the pickup screen and decides which one
// is being called out.
type Display struct {
	src Source
	now func() time.Time

	mu        sync.RWMutex
	ready     []model.Order
	calling   *model.Order
	announced map[string]struct{}
	onCall    func(model.Order)
}

// NewDisplay creates a display container reading from src. now may be nil.
func NewDisplay(src Source, now func() time.Time) *Display {
	if now == nil {
		now = time.Now
	}
	return &Display{src: src, now: now, announced: make(map[string]struct{})}
}

// OnCall registers a callback invoked, outside the lock, for every order
// newly announced by Refresh.
func (d *Display) OnCall(fn func(model.Order)) {
	d.mu.Lock()
	d.onCall = fn
	d.mu.Unlock()
}

// Watches implements Refresher.
func (d *Display) Watches() string { return enum.CollectionOrders }

// Refresh reloads READY orders. Each READY order not yet announced is
// announced once; the last such order becomes the calling order.
func (d *Display) Refresh(ctx context.Context) error {
	orders, err := d.src.Orders(ctx)
	if err != nil {
		return err
	}
	ready := filterStatus(orders, enum.OrderStatusReady)

	d.mu.Lock()
	readySet := make(map[string]struct{}, len(ready))
	var fresh []model.Order
	for _, o := range ready {
		readySet[o.OrderNumber] = struct{}{}
		if _, seen := d.announced[o.OrderNumber]; seen {
			continue
		}
		d.announced[o.OrderNumber] = struct{}{}
		fresh = append(fresh, o)
	}
	// Orders that left READY can be announced again if they ever return.
	for n := range d.announced {
		if _, ok := readySet[n]; !ok {
			delete(d.announced, n)
		}
	}
	if len(fresh) > 0 {
		c := fresh[len(fresh)-1]
		d.calling = &c
	} else if d.calling != nil {
		if _, ok := readySet[d.calling.OrderNumber]; !ok {
			d.calling = nil
		}
	}
	d.ready = ready
	onCall := d.onCall
	d.mu.Unlock()

	if onCall != nil {
		for _, o := range fresh {
			onCall(o)
		}
	}
	return nil
}

func averageWait(orders []model.Order, now time.Time) int {
	if len(orders) == 0 {
		return 0
	}
	var total float64
	for _, o := range orders {
		total += now.Sub(o.CreatedAt).Minutes()
	}
	return int(math.Round(total / float64(len(orders))))
}

// Board returns the pickup screen state.
func (d *Display) Board() DisplayBoard {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b := DisplayBoard{
		Ready:           append([]model.Order{}, d.ready...),
		AverageWaitMins: averageWait(d.ready, d.now()),
	}
	if d.calling != nil {
		c := *d.calling
		b.Calling = &c
	}
	return b
}
