package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	ordersPlaced        prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	changeNotifications *prometheus.CounterVec
	checkoutRejections  *prometheus.CounterVec
	wsClients           prometheus.Gauge
}

var (
	once     sync.Once
	registry *Metrics
)

// Default returns the lazily-initialised collectors, registered once with the
// default prometheus registerer.
func Default() *Metrics {
	once.Do(func() {
		registry = &Metrics{
			ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "burgerhub",
				Subsystem: "orders",
				Name:      "placed_total",
				Help:      "Orders committed to the store.",
			}),
			statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "burgerhub",
				Subsystem: "orders",
				Name:      "status_transitions_total",
				Help:      "Order status transitions segmented by target status.",
			}, []string{"status"}),
			changeNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "burgerhub",
				Subsystem: "sync",
				Name:      "notifications_total",
				Help:      "Change notifications published per collection.",
			}, []string{"collection"}),
			checkoutRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "burgerhub",
				Subsystem: "checkout",
				Name:      "rejections_total",
				Help:      "Checkouts rejected by validation, segmented by reason.",
			}, []string{"reason"}),
			wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "burgerhub",
				Subsystem: "ws",
				Name:      "clients",
				Help:      "Connected WebSocket clients.",
			}),
		}
		prometheus.MustRegister(
			registry.ordersPlaced,
			registry.statusTransitions,
			registry.changeNotifications,
			registry.checkoutRejections,
			registry.wsClients,
		)
	})
	return registry
}

// OrderPlaced records a committed order.
func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// StatusTransition records an order moving to status.
func (m *Metrics) StatusTransition(status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(status).Inc()
}

// ChangeNotified records a change signal for collection.
func (m *Metrics) ChangeNotified(collection string) {
	if m == nil {
		return
	}
	if collection == "" {
		collection = "all"
	}
	m.changeNotifications.WithLabelValues(collection).Inc()
}

// CheckoutRejected records a validation failure during checkout.
func (m *Metrics) CheckoutRejected(reason string) {
	if m == nil {
		return
	}
	m.checkoutRejections.WithLabelValues(reason).Inc()
}

// WSClientConnected adjusts the connected client gauge.
func (m *Metrics) WSClientConnected(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}
