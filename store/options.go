package store

import "log/slog"

// Instrumentation receives store events. Implementations must be cheap and
// must not call back into the store.
type Instrumentation interface {
	// RecordCreated is called after a record is inserted.
	RecordCreated()

	// Subscribed is called after an observer subscription.
	Subscribed()

	// Unsubscribed is called after an observer is removed.
	Unsubscribed()

	// Wrote is called after a write completes its notification pass,
	// with the number of observers notified.
	Wrote(notified int)

	// InvariantViolated is called right before the store panics.
	InvariantViolated(op string)
}

type nopInstrumentation struct{}

func (nopInstrumentation) RecordCreated()           {}
func (nopInstrumentation) Subscribed()              {}
func (nopInstrumentation) Unsubscribed()            {}
func (nopInstrumentation) Wrote(int)                {}
func (nopInstrumentation) InvariantViolated(string) {}

// options holds Store construction settings.
type options struct {
	logger          *slog.Logger
	instrumentation Instrumentation
}

// Option configures a [Store]. Options only affect logging and
// instrumentation, never read/write/notify semantics.
type Option func(*options)

// WithLogger sets the logger used by the store. A nil logger selects
// [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInstrumentation sets the receiver for store events. A nil value
// disables instrumentation.
func WithInstrumentation(i Instrumentation) Option {
	return func(o *options) {
		o.instrumentation = i
	}
}
