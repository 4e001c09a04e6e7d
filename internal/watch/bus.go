// Package watch delivers collection change signals to interested views.
//
// A change carries no data: receivers re-read the store. That makes dropped
// or coalesced signals harmless, which is what lets Publish never block.
package watch

import (
	"sync"
	"time"

	"github.com/burgerhub/api/internal/metrics"
)

// Change signals that the named collection was rewritten. An empty Key means
// "everything may have changed" (for example after a reset).
type Change struct {
	Key    string    `json:"key"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
}

const subscriptionBuffer = 16

// Subscription receives changes for one key, or all keys when Key is "".
type Subscription struct {
	bus  *Bus
	key  string
	ch   chan Change
	once sync.Once
}

// C returns the delivery channel. It is closed by Close.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *Subscription) matches(key string) bool {
	return s.key == "" || key == "" || s.key == key
}

// Bus is an in-process publish/subscribe hub for change signals.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	metrics *metrics.Metrics
}

// NewBus creates an empty bus. m may be nil.
func NewBus(m *metrics.Metrics) *Bus {
	return &Bus{
		subs:    make(map[*Subscription]struct{}),
		metrics: m,
	}
}

// Subscribe registers interest in key ("" for every collection).
func (b *Bus) Subscribe(key string) *Subscription {
	s := &Subscription{
		bus: b,
		key: key,
		ch:  make(chan Change, subscriptionBuffer),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish fans the change out to matching subscribers. A subscriber whose
// buffer is full misses the signal; it already has a pending re-read queued.
func (b *Bus) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	b.metrics.ChangeNotified(c.Key)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if !s.matches(c.Key) {
			continue
		}
		select {
		case s.ch <- c:
		default:
		}
	}
}

// Notify publishes a local change for key. It satisfies store.Notifier.
func (b *Bus) Notify(key string) {
	b.Publish(Change{Key: key})
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
