package scopestate

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/scopestate/internal/metrics"
	"github.com/jpalmerr/scopestate/store"
)

// ssConfig holds mutable state during store construction.
type ssConfig struct {
	logger          *slog.Logger
	instrumentation []store.Instrumentation
}

// Option configures a store created by [New].
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithLogger], [WithMetrics], [WithInstrumentation].
type Option func(*ssConfig) error

// WithLogger sets a custom [slog.Logger] for the store.
//
// If not specified, [slog.Default] is used. The store logs record creation
// and writes at Debug and contract violations at Error.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *ssConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMetrics registers Prometheus metrics for the store with reg.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	st, err := scopestate.New(scopestate.WithMetrics(reg))
//
// Returns an error if reg is nil or registration fails.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *ssConfig) error {
		if reg == nil {
			return errors.New("metrics registerer cannot be nil")
		}
		c, err := metrics.New(reg)
		if err != nil {
			return err
		}
		cfg.instrumentation = append(cfg.instrumentation, c)
		return nil
	}
}

// WithInstrumentation adds a receiver for store events.
//
// May be combined with [WithMetrics]; every receiver sees every event.
//
// Returns an error if i is nil.
func WithInstrumentation(i store.Instrumentation) Option {
	return func(cfg *ssConfig) error {
		if i == nil {
			return errors.New("instrumentation cannot be nil")
		}
		cfg.instrumentation = append(cfg.instrumentation, i)
		return nil
	}
}

// fanout forwards store events to several receivers.
type fanout []store.Instrumentation

func (f fanout) RecordCreated() {
	for _, i := range f {
		i.RecordCreated()
	}
}

func (f fanout) Subscribed() {
	for _, i := range f {
		i.Subscribed()
	}
}

func (f fanout) Unsubscribed() {
	for _, i := range f {
		i.Unsubscribed()
	}
}

func (f fanout) Wrote(notified int) {
	for _, i := range f {
		i.Wrote(notified)
	}
}

func (f fanout) InvariantViolated(op string) {
	for _, i := range f {
		i.InvariantViolated(op)
	}
}
