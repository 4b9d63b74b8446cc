package scopestate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jpalmerr/scopestate/store"
)

// ErrStoreMissing is returned when a scope is used through a context that
// carries no store. Attach one with [WithStore].
var ErrStoreMissing = errors.New("scopestate: store missing from context")

// storeContextKey is the context key for the active store.
type storeContextKey struct{}

// New creates a [store.Store] configured with the given options.
//
// The caller owns the store's lifetime. Create one per top-level scope (for
// example one per running application) and attach it with [WithStore].
//
// Example:
//
//	st, err := scopestate.New(
//	    scopestate.WithLogger(logger),
//	    scopestate.WithMetrics(prometheus.DefaultRegisterer),
//	)
func New(opts ...Option) (*store.Store, error) {
	cfg := &ssConfig{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	switch len(cfg.instrumentation) {
	case 0:
	case 1:
		storeOpts = append(storeOpts, store.WithInstrumentation(cfg.instrumentation[0]))
	default:
		storeOpts = append(storeOpts, store.WithInstrumentation(fanout(cfg.instrumentation)))
	}

	return store.New(storeOpts...), nil
}

// WithStore returns a copy of ctx carrying s.
func WithStore(ctx context.Context, s *store.Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// StoreFrom returns the store attached to ctx, or [ErrStoreMissing].
func StoreFrom(ctx context.Context) (*store.Store, error) {
	if ctx == nil {
		return nil, ErrStoreMissing
	}
	s, ok := ctx.Value(storeContextKey{}).(*store.Store)
	if !ok || s == nil {
		return nil, ErrStoreMissing
	}
	return s, nil
}
