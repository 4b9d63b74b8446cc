package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scopestate"

// Collector records store events in Prometheus metrics:
//
//   - scopestate_records_created_total
//   - scopestate_subscriptions_active
//   - scopestate_writes_total
//   - scopestate_notifications_total
//   - scopestate_invariant_violations_total{op}
//
// The subscriptions gauge only moves on Subscribe and Unsubscribe. A store
// discarded while observers are still subscribed stays counted, so on a
// registry shared by many short-lived stores the gauge drifts upward. Close
// bindings before dropping a store to keep it accurate.
type Collector struct {
	recordsCreated prometheus.Counter
	subscriptions  prometheus.Gauge
	writes         prometheus.Counter
	notifications  prometheus.Counter
	violations     *prometheus.CounterVec
}

// New creates a [Collector] and registers its metrics with reg. Metrics that
// are already registered (for example by a previous Collector on the same
// registry) are shared instead of failing.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		return nil, errors.New("metrics: nil registerer")
	}

	c := &Collector{
		recordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Total number of records created",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Observer subscriptions minus unsubscriptions; stores dropped without unsubscribing are not subtracted",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Total number of writes",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of observer notifications",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Total number of store contract violations by operation",
		}, []string{"op"}),
	}

	var err error
	if c.recordsCreated, err = register(reg, c.recordsCreated); err != nil {
		return nil, err
	}
	if c.subscriptions, err = register(reg, c.subscriptions); err != nil {
		return nil, err
	}
	if c.writes, err = register(reg, c.writes); err != nil {
		return nil, err
	}
	if c.notifications, err = register(reg, c.notifications); err != nil {
		return nil, err
	}
	if c.violations, err = register(reg, c.violations); err != nil {
		return nil, err
	}

	return c, nil
}

// register registers col, returning the existing collector on duplicates.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(C)
			if ok {
				return existing, nil
			}
		}
		return col, fmt.Errorf("metrics: register: %w", err)
	}
	return col, nil
}

// RecordCreated implements store.Instrumentation.
func (c *Collector) RecordCreated() {
	c.recordsCreated.Inc()
}

// Subscribed implements store.Instrumentation.
func (c *Collector) Subscribed() {
	c.subscriptions.Inc()
}

// Unsubscribed implements store.Instrumentation.
func (c *Collector) Unsubscribed() {
	c.subscriptions.Dec()
}

// Wrote implements store.Instrumentation.
func (c *Collector) Wrote(notified int) {
	c.writes.Inc()
	c.notifications.Add(float64(notified))
}

// InvariantViolated implements store.Instrumentation.
func (c *Collector) InvariantViolated(op string) {
	c.violations.WithLabelValues(op).Inc()
}
