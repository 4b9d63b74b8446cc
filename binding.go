package scopestate

import (
	"context"
	"errors"

	"github.com/jpalmerr/scopestate/store"
)

var errNilScope = errors.New("scopestate: nil scope")

// Binding gives read, write and react access to a scope.
//
// Creating a Binding creates the scope's record if needed and subscribes
// onChange to it. Call [Binding.Close] when the owner goes away, or onChange
// keeps being called.
type Binding[T any] struct {
	store    *store.Store
	scope    *Scope[T]
	observer *store.Observer
	closed   bool
}

// Bind subscribes onChange to scope in the store attached to ctx.
//
// onChange runs synchronously after every write to the scope, including
// writes made through this binding. A nil onChange is allowed; the binding
// then only reads and writes.
//
// Returns [ErrStoreMissing] if ctx carries no store.
func Bind[T any](ctx context.Context, scope *Scope[T], onChange func()) (*Binding[T], error) {
	st, err := StoreFrom(ctx)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return nil, errNilScope
	}

	ensureRecord(st, scope)

	// subscribe before returning so writes made right away already notify
	observer := store.NewObserver(onChange)
	st.Subscribe(scope.key, observer)

	return &Binding[T]{
		store:    st,
		scope:    scope,
		observer: observer,
	}, nil
}

// Get returns the scope's current value.
func (b *Binding[T]) Get() T {
	return cast[T](b.store.Read(b.scope.key))
}

// Set writes v and notifies every subscriber of the scope.
//
// Callers deriving the new value from the old one should read it with
// [Binding.Get] right before calling Set, so consecutive updates compose.
func (b *Binding[T]) Set(v T) {
	b.store.Write(b.scope.key, v)
}

// Scope returns the bound scope.
func (b *Binding[T]) Scope() *Scope[T] {
	return b.scope
}

// Close unsubscribes the binding's observer. Safe to call more than once.
func (b *Binding[T]) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.store.Unsubscribe(b.scope.key, b.observer)
}

// Writer gives write-only access to a scope. It never subscribes, so its
// owner is not notified of changes.
type Writer[T any] struct {
	store *store.Store
	scope *Scope[T]
}

// NewWriter returns a [Writer] for scope in the store attached to ctx,
// creating the scope's record if needed.
//
// Returns [ErrStoreMissing] if ctx carries no store.
func NewWriter[T any](ctx context.Context, scope *Scope[T]) (*Writer[T], error) {
	st, err := StoreFrom(ctx)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return nil, errNilScope
	}

	ensureRecord(st, scope)

	return &Writer[T]{store: st, scope: scope}, nil
}

// Set writes v and notifies every subscriber of the scope.
func (w *Writer[T]) Set(v T) {
	w.store.Write(w.scope.key, v)
}

// Current returns the scope's current value, for callers computing the next
// value from the latest one.
func (w *Writer[T]) Current() T {
	return cast[T](w.store.Read(w.scope.key))
}

// Initialize seeds scope with value in the store attached to ctx.
//
// Every call writes, and the write goes through a [Writer], so existing
// subscribers are notified each time. Owners that run their setup
// repeatedly should seed through an [Initializer] instead.
//
// Returns [ErrStoreMissing] if ctx carries no store.
func Initialize[T any](ctx context.Context, scope *Scope[T], value T) error {
	w, err := NewWriter(ctx, scope)
	if err != nil {
		return err
	}
	w.Set(value)
	return nil
}

// Initializer seeds a scope once per owner. It remembers the last scope it
// seeded: Seed writes only when given a different scope, so calling it on
// every run of the owner's setup seeds on the first run and again only after
// the owner switches scopes.
//
// The zero value is ready to use. An Initializer is not safe for concurrent
// use.
type Initializer[T any] struct {
	last *Scope[T]
}

// Seed writes value to scope unless scope is the one seeded last.
// It reports whether it wrote.
//
// Returns [ErrStoreMissing] if ctx carries no store; nothing is remembered
// then, so a later call seeds.
func (in *Initializer[T]) Seed(ctx context.Context, scope *Scope[T], value T) (bool, error) {
	if scope != nil && scope == in.last {
		return false, nil
	}
	if err := Initialize(ctx, scope, value); err != nil {
		return false, err
	}
	in.last = scope
	return true, nil
}
