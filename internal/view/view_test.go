package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/storage"
	"github.com/burgerhub/api/internal/store"
	"github.com/burgerhub/api/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func seededStore(t *testing.T, n store.Notifier) *store.Store {
	t.Helper()
	st := store.New(storage.NewMemDB(), n, store.WithClock(clock))
	require.NoError(t, st.InitializeData(context.Background()))
	return st
}

// fakeSource serves fixed collections.
type fakeSource struct {
	orders []model.Order
	err    error
}

func (f *fakeSource) Orders(ctx context.Context) ([]model.Order, error) { return f.orders, f.err }
func (f *fakeSource) Customers(ctx context.Context) ([]model.Customer, error) {
	return nil, f.err
}
func (f *fakeSource) Coupons(ctx context.Context) ([]model.Coupon, error) { return nil, f.err }
func (f *fakeSource) Menus(ctx context.Context) ([]model.Menu, error)     { return nil, f.err }

// --- Cart ---

func TestCart_AddMergesByMenu(t *testing.T) {
	var c Cart
	c.Add(model.CartItem{MenuID: "menu-1", Quantity: 1, UnitPrice: 7100})
	c.Add(model.CartItem{MenuID: "menu-5", Quantity: 1, UnitPrice: 2500})
	c.Add(model.CartItem{MenuID: "menu-1", Quantity: 2, UnitPrice: 7100})

	s := c.Snapshot()
	require.Len(t, s.Items, 2)
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, 3*7100+2500, s.Total)
	assert.Equal(t, s.Total, c.Total())
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	var c Cart
	c.Add(model.CartItem{MenuID: "menu-1", Quantity: 1, UnitPrice: 100})
	c.Add(model.CartItem{MenuID: "menu-2", Quantity: 1, UnitPrice: 200})

	assert.True(t, c.SetQuantity("menu-1", 4))
	assert.Equal(t, 600, c.Total())

	assert.False(t, c.SetQuantity("menu-x", 2))
	assert.True(t, c.SetQuantity("menu-2", 0))
	assert.Equal(t, 400, c.Total())

	assert.True(t, c.Remove("menu-1"))
	assert.False(t, c.Remove("menu-1"))
	assert.Empty(t, c.Snapshot().Items)
}

func TestCart_ClearResetsCouponAndPoints(t *testing.T) {
	var c Cart
	c.SetCustomer("customer-1")
	c.Add(model.CartItem{MenuID: "menu-1", Quantity: 1, UnitPrice: 100})
	c.SetCoupon("coupon-1", "WELCOME10")
	c.SetUsedPoints(300)
	c.SetLastOrder(model.Order{OrderNumber: "1005"})

	c.Clear()
	s := c.Snapshot()
	assert.Empty(t, s.Items)
	assert.Empty(t, s.CouponID)
	assert.Empty(t, s.CouponCode)
	assert.Zero(t, s.UsedPoints)
	assert.Equal(t, "customer-1", s.CustomerID)
	require.NotNil(t, s.LastOrder)
	assert.Equal(t, "1005", s.LastOrder.OrderNumber)
}

func TestCart_CheckoutRequest(t *testing.T) {
	var c Cart
	c.SetCustomer("customer-1")
	c.Add(model.CartItem{MenuID: "menu-3", Quantity: 2})
	c.SetCoupon("coupon-2", "SAVE2000")
	c.SetUsedPoints(100)

	req := c.CheckoutRequest(enum.PaymentMethodCash)
	assert.Equal(t, "customer-1", req.CustomerID)
	assert.Equal(t, "SAVE2000", req.CouponCode)
	assert.Equal(t, 100, req.UsedPoints)
	assert.Equal(t, enum.PaymentMethodCash, req.PaymentMethod)
	assert.Len(t, req.Items, 1)
}

// --- Kiosk ---

func TestKiosk_MenusAndSessions(t *testing.T) {
	k := NewKiosk(seededStore(t, nil))
	require.NoError(t, k.Refresh(context.Background()))

	burgers := k.Menus(enum.CategoryBurger)
	assert.Len(t, burgers, 3)
	assert.Len(t, k.Menus(""), 8)

	_, ok := k.Menu("menu-4")
	assert.True(t, ok, "unavailable menus stay addressable by id")

	a := k.Cart("s1")
	assert.Same(t, a, k.Cart("s1"))
	assert.NotSame(t, a, k.Cart("s2"))
	assert.Equal(t, 2, k.Sessions())
	k.EndSession("s1")
	assert.Equal(t, 1, k.Sessions())
}

func TestKiosk_SweepIdle(t *testing.T) {
	k := NewKiosk(&fakeSource{})
	current := now
	k.now = func() time.Time { return current }

	k.Cart("old")
	current = current.Add(20 * time.Minute)
	k.Cart("fresh")
	current = current.Add(15 * time.Minute)

	assert.Equal(t, 1, k.SweepIdle(30*time.Minute))
	assert.Equal(t, 1, k.Sessions())
}

// --- Kitchen ---

func TestKitchen_Columns(t *testing.T) {
	k := NewKitchen(seededStore(t, nil))
	require.NoError(t, k.Refresh(context.Background()))

	b := k.Board()
	assert.Len(t, b.Pending, 2)
	assert.Len(t, b.Preparing, 1)
	assert.Len(t, b.Ready, 1)

	k.Select("1003")
	b = k.Board()
	assert.Equal(t, "1003", b.Selected)
	assert.Equal(t, "1002", b.Preparing[0].OrderNumber)
}

func TestKitchen_RefreshError(t *testing.T) {
	k := NewKitchen(&fakeSource{err: errors.New("boom")})
	assert.Error(t, k.Refresh(context.Background()))
	assert.Empty(t, k.Board().Pending)
}

// --- Display ---

func TestDisplay_AnnouncesEachReadyOrderOnce(t *testing.T) {
	src := &fakeSource{orders: []model.Order{
		{OrderNumber: "1001", Status: enum.OrderStatusPreparing, CreatedAt: now.Add(-4 * time.Minute)},
		{OrderNumber: "1002", Status: enum.OrderStatusReady, CreatedAt: now.Add(-6 * time.Minute)},
	}}
	d := NewDisplay(src, clock)
	var calls []string
	d.OnCall(func(o model.Order) { calls = append(calls, o.OrderNumber) })
	ctx := context.Background()

	require.NoError(t, d.Refresh(ctx))
	b := d.Board()
	require.NotNil(t, b.Calling)
	assert.Equal(t, "1002", b.Calling.OrderNumber)
	assert.Equal(t, 6, b.AverageWaitMins)

	// A refresh with nothing new keeps the current call and does not re-announce.
	require.NoError(t, d.Refresh(ctx))
	assert.Equal(t, []string{"1002"}, calls)

	src.orders[0].Status = enum.OrderStatusReady
	require.NoError(t, d.Refresh(ctx))
	b = d.Board()
	require.NotNil(t, b.Calling)
	assert.Equal(t, "1001", b.Calling.OrderNumber)
	assert.Equal(t, []string{"1002", "1001"}, calls)
	assert.Len(t, b.Ready, 2)
	assert.Equal(t, 5, b.AverageWaitMins)
}

func TestDisplay_CallingClearsWhenPickedUp(t *testing.T) {
	src := &fakeSource{orders: []model.Order{
		{OrderNumber: "1004", Status: enum.OrderStatusReady, CreatedAt: now},
	}}
	d := NewDisplay(src, clock)
	require.NoError(t, d.Refresh(context.Background()))

	src.orders[0].Status = enum.OrderStatusCompleted
	require.NoError(t, d.Refresh(context.Background()))
	b := d.Board()
	assert.Nil(t, b.Calling)
	assert.Empty(t, b.Ready)
	assert.Zero(t, b.AverageWaitMins)
}

// --- Admin ---

func TestAdmin_RefreshComputesDashboard(t *testing.T) {
	a := NewAdmin(seededStore(t, nil), clock)
	require.NoError(t, a.Refresh(context.Background()))

	d := a.Dashboard()
	assert.Equal(t, 4, d.OrderCount)
	assert.Equal(t, 13100+17800+15000+7000, d.TotalSales)
	assert.Equal(t, 2, a.StatusCounts()[enum.OrderStatusPending])
	assert.Equal(t, 9, a.Counts()["menus"])

	later := now.Add(24 * time.Hour)
	a.now = func() time.Time { return later }
	assert.Zero(t, a.Recalculate().OrderCount)
}

// --- Customers ---

func TestCustomers_Profile(t *testing.T) {
	c := NewCustomers(seededStore(t, nil), clock)
	require.NoError(t, c.Refresh(context.Background()))

	p, ok := c.Profile("customer-1")
	require.True(t, ok)
	assert.Equal(t, "Kim Minji", p.Customer.Name)
	assert.Len(t, p.Coupons, 2)
	require.Len(t, p.Orders, 2)
	assert.Equal(t, "1003", p.Orders[0].OrderNumber)

	_, ok = c.Profile("nobody")
	assert.False(t, ok)
}

// --- Run ---

func TestRun_RefreshesOnChange(t *testing.T) {
	bus := watch.NewBus(nil)
	st := seededStore(t, bus)
	k := NewKitchen(st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var done atomic.Bool
	go func() {
		Run(ctx, bus, 0, k)
		done.Store(true)
	}()

	require.Eventually(t, func() bool { return len(k.Board().Pending) == 2 }, time.Second, 5*time.Millisecond)
	// Wait for the watch subscription before writing.
	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 5*time.Millisecond)

	_, err := st.UpdateOrderStatus(context.Background(), "1001", enum.OrderStatusPending, enum.OrderStatusPreparing)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(k.Board().Preparing) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, done.Load, time.Second, 5*time.Millisecond)
}
