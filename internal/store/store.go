// Package store is the single authority for the four persisted collections
// (orders, customers, coupons, menus). Each collection is one JSON array
// stored under its well-known key; every mutation rewrites the whole array
// and then signals the change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/ordernum"
	"github.com/burgerhub/api/internal/storage"
	"github.com/google/uuid"
)

// seqKey holds the last order number handed out.
const seqKey = "order_seq"

// Errors returned by the store.
var (
	ErrNotFound           = errors.New("not found")
	ErrCouponUnavailable  = errors.New("coupon is no longer available")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)

// Notifier receives a signal after a collection is rewritten.
// Satisfied by *watch.Bus.
type Notifier interface {
	Notify(key string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Store reads and writes the persisted collections.
type Store struct {
	db     storage.Database
	notify Notifier
	now    func() time.Time

	// mu serialises read-modify-write cycles.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over db. notify may be nil.
func New(db storage.Database, notify Notifier, opts ...Option) *Store {
	if notify == nil {
		notify = nopNotifier{}
	}
	s := &Store{db: db, notify: notify, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Collection access ---

// readCollection loads the array stored under key. A key that was never
// written and a value that does not decode both yield an empty collection.
func readCollection[T any](db storage.Database, key string) ([]T, error) {
	raw, err := db.Get([]byte(key))
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("discarding malformed collection", "key", key, "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func putCollection[T any](b *storage.Batch, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b.Put([]byte(key), raw)
	return nil
}

func writeCollection[T any](db storage.Database, key string, items []T) error {
	b := storage.NewBatch()
	if err := putCollection(b, key, items); err != nil {
		return err
	}
	if err := db.Write(b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Orders returns every order in submission order.
func (s *Store) Orders(ctx context.Context) ([]model.Order, error) {
	return readCollection[model.Order](s.db, enum.CollectionOrders)
}

// Customers returns every customer.
func (s *Store) Customers(ctx context.Context) ([]model.Customer, error) {
	return readCollection[model.Customer](s.db, enum.CollectionCustomers)
}

// Coupons returns every coupon.
func (s *Store) Coupons(ctx context.Context) ([]model.Coupon, error) {
	return readCollection[model.Coupon](s.db, enum.CollectionCoupons)
}

// Menus returns every menu.
func (s *Store) Menus(ctx context.Context) ([]model.Menu, error) {
	return readCollection[model.Menu](s.db, enum.CollectionMenus)
}

// --- Lookups ---

// Order finds an order by its human-readable number.
func (s *Store) Order(ctx context.Context, number string) (model.Order, error) {
	orders, err := s.Orders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	for _, o := range orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return model.Order{}, fmt.Errorf("order %s: %w", number, ErrNotFound)
}

// OrdersByCustomer returns the customer's orders, newest first.
func (s *Store) OrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	orders, err := s.Orders(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Order{}
	for i := len(orders) - 1; i >= 0; i-- {
		if orders[i].CustomerID == customerID {
			out = append(out, orders[i])
		}
	}
	return out, nil
}

// Customer finds a customer by id.
func (s *Store) Customer(ctx context.Context, id string) (model.Customer, error) {
	customers, err := s.Customers(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	for _, c := range customers {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
}

// Coupon finds a coupon by id.
func (s *Store) Coupon(ctx context.Context, id string) (model.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return model.Coupon{}, err
	}
	for _, c := range coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Coupon{}, fmt.Errorf("coupon %s: %w", id, ErrNotFound)
}

// CouponByCode finds a coupon by redemption code regardless of its state, so
// callers can tell "used" and "expired" apart from "unknown".
func (s *Store) CouponByCode(ctx context.Context, code string) (model.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return model.Coupon{}, err
	}
	for _, c := range coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return model.Coupon{}, fmt.Errorf("coupon code %s: %w", code, ErrNotFound)
}

// CouponsByCustomer returns the customer's unused, unexpired coupons.
func (s *Store) CouponsByCustomer(ctx context.Context, customerID string) ([]model.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []model.Coupon{}
	for _, c := range coupons {
		if c.CustomerID == customerID && !c.IsUsed && c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Menu finds a menu by id.
func (s *Store) Menu(ctx context.Context, id string) (model.Menu, error) {
	menus, err := s.Menus(ctx)
	if err != nil {
		return model.Menu{}, err
	}
	for _, m := range menus {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Menu{}, fmt.Errorf("menu %s: %w", id, ErrNotFound)
}

// MenusByCategory returns available menus in category.
func (s *Store) MenusByCategory(ctx context.Context, category string) ([]model.Menu, error) {
	menus, err := s.Menus(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Menu{}
	for _, m := range menus {
		if m.Category == category && m.IsAvailable {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- Order numbering ---

// lastNumberLocked returns the last order number handed out, reconciling the
// persisted counter with the orders actually stored.
func (s *Store) lastNumberLocked(orders []model.Order) (int, error) {
	last := ordernum.Max(orders)
	raw, err := s.db.Get([]byte(seqKey))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return last, nil
	case err != nil:
		return 0, fmt.Errorf("read order counter: %w", err)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		slog.Warn("discarding malformed order counter", "value", string(raw))
		return last, nil
	}
	return max(n, last), nil
}

// PeekOrderNumber returns the number the next order will receive.
func (s *Store) PeekOrderNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, err := s.Orders(ctx)
	if err != nil {
		return "", err
	}
	last, err := s.lastNumberLocked(orders)
	if err != nil {
		return "", err
	}
	return ordernum.Format(last + 1), nil
}

// --- Mutations ---

// AddOrder appends an order. An order without a number gets the next one
// from the counter; ID, CreatedAt and Status are filled in when empty.
func (s *Store) AddOrder(ctx context.Context, order model.Order) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.Orders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	b := storage.NewBatch()
	order, err = s.appendOrderLocked(b, orders, order)
	if err != nil {
		return model.Order{}, err
	}
	if err := s.db.Write(b); err != nil {
		return model.Order{}, fmt.Errorf("write order: %w", err)
	}
	s.notify.Notify(enum.CollectionOrders)
	return order, nil
}

func (s *Store) appendOrderLocked(b *storage.Batch, orders []model.Order, order model.Order) (model.Order, error) {
	last, err := s.lastNumberLocked(orders)
	if err != nil {
		return model.Order{}, err
	}
	if order.OrderNumber == "" {
		order.OrderNumber = ordernum.Format(last + 1)
	}
	if n, ok := ordernum.Parse(order.OrderNumber); ok && n > last {
		last = n
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	if order.Status == "" {
		order.Status = enum.OrderStatusPending
	}

	orders = append(orders, order)
	if err := putCollection(b, enum.CollectionOrders, orders); err != nil {
		return model.Order{}, err
	}
	b.Put([]byte(seqKey), []byte(strconv.Itoa(last)))
	return order, nil
}

// UpdateOrderStatus moves an order from status from to status to. It fails
// with ErrStatusConflict when the stored status is no longer from; an empty
// from skips the check. Moving to PREPARING stamps StartedAt; moving to READY
// stamps CompletedAt.
func (s *Store) UpdateOrderStatus(ctx context.Context, number, from, to string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.Orders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	idx := indexOf(orders, func(o model.Order) bool { return o.OrderNumber == number })
	if idx < 0 {
		return model.Order{}, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	if from != "" && orders[idx].Status != from {
		return model.Order{}, fmt.Errorf("order %s is %s, not %s: %w", number, orders[idx].Status, from, ErrStatusConflict)
	}

	now := s.now()
	o := &orders[idx]
	o.Status = to
	switch to {
	case enum.OrderStatusPreparing:
		o.StartedAt = &now
	case enum.OrderStatusReady:
		o.CompletedAt = &now
	}

	if err := writeCollection(s.db, enum.CollectionOrders, orders); err != nil {
		return model.Order{}, err
	}
	s.notify.Notify(enum.CollectionOrders)
	return *o, nil
}

// UpdateCustomerPoints adds delta (which may be negative) to the balance,
// flooring at zero.
func (s *Store) UpdateCustomerPoints(ctx context.Context, customerID string, delta int) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.Customers(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	idx := indexOf(customers, func(c model.Customer) bool { return c.ID == customerID })
	if idx < 0 {
		return model.Customer{}, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	customers[idx].Points = max(0, customers[idx].Points+delta)

	if err := writeCollection(s.db, enum.CollectionCustomers, customers); err != nil {
		return model.Customer{}, err
	}
	s.notify.Notify(enum.CollectionCustomers)
	return customers[idx], nil
}

// UseCoupon marks a coupon used and stamps UsedAt. Using an already used
// coupon leaves the original timestamp in place.
func (s *Store) UseCoupon(ctx context.Context, couponID string) (model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coupons, err := s.Coupons(ctx)
	if err != nil {
		return model.Coupon{}, err
	}
	idx := indexOf(coupons, func(c model.Coupon) bool { return c.ID == couponID })
	if idx < 0 {
		return model.Coupon{}, fmt.Errorf("coupon %s: %w", couponID, ErrNotFound)
	}
	markUsed(&coupons[idx], s.now())

	if err := writeCollection(s.db, enum.CollectionCoupons, coupons); err != nil {
		return model.Coupon{}, err
	}
	s.notify.Notify(enum.CollectionCoupons)
	return coupons[idx], nil
}

// redeemable reports why c cannot be spent on an order for customerID at now.
func redeemable(c model.Coupon, customerID string, now time.Time) error {
	switch {
	case c.IsUsed:
		return fmt.Errorf("coupon %s used: %w", c.ID, ErrCouponUnavailable)
	case c.ExpiresAt.Before(now):
		return fmt.Errorf("coupon %s expired: %w", c.ID, ErrCouponUnavailable)
	case customerID != "" && c.CustomerID != customerID:
		return fmt.Errorf("coupon %s not owned by %s: %w", c.ID, customerID, ErrCouponUnavailable)
	}
	return nil
}

func markUsed(c *model.Coupon, now time.Time) {
	if c.IsUsed {
		return
	}
	c.IsUsed = true
	c.UsedAt = &now
}

// UpdateMenuStock decrements stock by consumed, flooring at zero.
func (s *Store) UpdateMenuStock(ctx context.Context, menuID string, consumed int) (model.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	menus, err := s.Menus(ctx)
	if err != nil {
		return model.Menu{}, err
	}
	idx := indexOf(menus, func(m model.Menu) bool { return m.ID == menuID })
	if idx < 0 {
		return model.Menu{}, fmt.Errorf("menu %s: %w", menuID, ErrNotFound)
	}
	menus[idx].Stock = max(0, menus[idx].Stock-consumed)

	if err := writeCollection(s.db, enum.CollectionMenus, menus); err != nil {
		return model.Menu{}, err
	}
	s.notify.Notify(enum.CollectionMenus)
	return menus[idx], nil
}

// PlaceOrderParams describes a checkout to commit in one unit.
type PlaceOrderParams struct {
	// Order is appended as-is; OrderNumber is always assigned by the store.
	Order model.Order
	// EarnedPoints are credited to Order.CustomerID after Order.UsedPoints
	// are debited.
	EarnedPoints int
}

// PlaceOrder appends the order, consumes its coupon, settles the customer's
// points and decrements menu stock as a single atomic write. The coupon
// (used, expired, owner) and point balance are re-checked under the store
// lock at commit time.
func (s *Store) PlaceOrder(ctx context.Context, p PlaceOrderParams) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.Orders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	customers, err := s.Customers(ctx)
	if err != nil {
		return model.Order{}, err
	}
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return model.Order{}, err
	}
	menus, err := s.Menus(ctx)
	if err != nil {
		return model.Order{}, err
	}

	order := p.Order
	order.OrderNumber = ""
	touched := []string{enum.CollectionOrders}
	b := storage.NewBatch()

	if order.CouponID != "" {
		idx := indexOf(coupons, func(c model.Coupon) bool { return c.ID == order.CouponID })
		if idx < 0 {
			return model.Order{}, fmt.Errorf("coupon %s: %w", order.CouponID, ErrNotFound)
		}
		if err := redeemable(coupons[idx], order.CustomerID, s.now()); err != nil {
			return model.Order{}, err
		}
		markUsed(&coupons[idx], s.now())
		if err := putCollection(b, enum.CollectionCoupons, coupons); err != nil {
			return model.Order{}, err
		}
		touched = append(touched, enum.CollectionCoupons)
	}

	if order.CustomerID != "" && (order.UsedPoints > 0 || p.EarnedPoints > 0) {
		idx := indexOf(customers, func(c model.Customer) bool { return c.ID == order.CustomerID })
		if idx < 0 {
			return model.Order{}, fmt.Errorf("customer %s: %w", order.CustomerID, ErrNotFound)
		}
		if customers[idx].Points < order.UsedPoints {
			return model.Order{}, ErrInsufficientPoints
		}
		customers[idx].Points = max(0, customers[idx].Points-order.UsedPoints+p.EarnedPoints)
		if err := putCollection(b, enum.CollectionCustomers, customers); err != nil {
			return model.Order{}, err
		}
		touched = append(touched, enum.CollectionCustomers)
	}

	stockChanged := false
	for _, it := range order.Items {
		idx := indexOf(menus, func(m model.Menu) bool { return m.ID == it.MenuID })
		if idx < 0 {
			continue
		}
		menus[idx].Stock = max(0, menus[idx].Stock-it.Quantity)
		stockChanged = true
	}
	if stockChanged {
		if err := putCollection(b, enum.CollectionMenus, menus); err != nil {
			return model.Order{}, err
		}
		touched = append(touched, enum.CollectionMenus)
	}

	order, err = s.appendOrderLocked(b, orders, order)
	if err != nil {
		return model.Order{}, err
	}
	if err := s.db.Write(b); err != nil {
		return model.Order{}, fmt.Errorf("write checkout: %w", err)
	}
	for _, key := range touched {
		s.notify.Notify(key)
	}
	return order, nil
}

// --- Lifecycle ---

// InitializeData seeds each collection that has never been written.
func (s *Store) InitializeData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed, err := LoadSeed(s.now())
	if err != nil {
		return err
	}

	b := storage.NewBatch()
	var seeded []string
	for _, key := range enum.Collections {
		ok, err := s.db.Has([]byte(key))
		if err != nil {
			return fmt.Errorf("check %s: %w", key, err)
		}
		if ok {
			continue
		}
		if err := putSeed(b, key, seed); err != nil {
			return err
		}
		seeded = append(seeded, key)
	}
	if b.Len() == 0 {
		return nil
	}
	if err := s.db.Write(b); err != nil {
		return fmt.Errorf("write seed: %w", err)
	}
	slog.Info("seeded collections", "collections", seeded)
	for _, key := range seeded {
		s.notify.Notify(key)
	}
	return nil
}

// ClearAllData drops the four collections and the order counter, then
// reseeds them.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed, err := LoadSeed(s.now())
	if err != nil {
		return err
	}

	b := storage.NewBatch()
	b.Delete([]byte(seqKey))
	for _, key := range enum.Collections {
		b.Delete([]byte(key))
		if err := putSeed(b, key, seed); err != nil {
			return err
		}
	}
	if err := s.db.Write(b); err != nil {
		return fmt.Errorf("write reset: %w", err)
	}
	slog.Info("cleared and reseeded all collections")
	s.notify.Notify("")
	return nil
}

func putSeed(b *storage.Batch, key string, seed *Seed) error {
	switch key {
	case enum.CollectionOrders:
		return putCollection(b, key, seed.Orders)
	case enum.CollectionCustomers:
		return putCollection(b, key, seed.Customers)
	case enum.CollectionCoupons:
		return putCollection(b, key, seed.Coupons)
	case enum.CollectionMenus:
		return putCollection(b, key, seed.Menus)
	}
	return fmt.Errorf("unknown collection %q", key)
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}
