package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jpalmerr/scopestate/store"
)

func TestNew_NilRegisterer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}

func TestCollector_RecordsStoreActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s := store.New(store.WithInstrumentation(c))
	key := store.NewKey("a")
	s.CreateRecord(key, 0)

	first := store.NewObserver(func() {})
	second := store.NewObserver(func() {})
	s.Subscribe(key, first)
	s.Subscribe(key, second)
	s.Write(key, 1)
	s.Unsubscribe(key, second)
	s.Write(key, 2)

	if got := testutil.ToFloat64(c.recordsCreated); got != 1 {
		t.Errorf("records_created_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.subscriptions); got != 1 {
		t.Errorf("subscriptions_active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.writes); got != 2 {
		t.Errorf("writes_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.notifications); got != 3 {
		t.Errorf("notifications_total = %v, want 3", got)
	}
}

func TestCollector_GaugeIgnoresRepeatedSubscriptions(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s := store.New(store.WithInstrumentation(c))
	key := store.NewKey("a")
	s.CreateRecord(key, 0)

	observer := store.NewObserver(func() {})
	s.Subscribe(key, observer)
	s.Subscribe(key, observer)
	s.Unsubscribe(key, store.NewObserver(func() {}))

	if got := testutil.ToFloat64(c.subscriptions); got != 1 {
		t.Errorf("subscriptions_active = %v, want 1", got)
	}

	s.Unsubscribe(key, observer)
	s.Unsubscribe(key, observer)

	if got := testutil.ToFloat64(c.subscriptions); got != 0 {
		t.Errorf("subscriptions_active after unsubscribe = %v, want 0", got)
	}
}

func TestCollector_GaugeKeepsSubscriptionsOfDroppedStores(t *testing.T) {
	reg := prometheus.NewRegistry()

	for range 3 {
		c, err := New(reg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		s := store.New(store.WithInstrumentation(c))
		key := store.NewKey("a")
		s.CreateRecord(key, 0)
		s.Subscribe(key, store.NewObserver(func() {}))
		// s is dropped without unsubscribing
	}

	c, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := testutil.ToFloat64(c.subscriptions); got != 3 {
		t.Errorf("subscriptions_active = %v, want 3", got)
	}
}

func TestCollector_CountsViolations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s := store.New(store.WithInstrumentation(c))
	func() {
		defer func() { _ = recover() }()
		s.Read(store.NewKey("missing"))
	}()

	if got := testutil.ToFloat64(c.violations.WithLabelValues("read")); got != 1 {
		t.Errorf("invariant_violations_total{op=read} = %v, want 1", got)
	}
}

func TestNew_SharesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	second, err := New(reg)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}

	first.Wrote(0)
	second.Wrote(0)

	if got := testutil.ToFloat64(first.writes); got != 2 {
		t.Errorf("writes_total = %v, want 2 (shared between collectors)", got)
	}
}
