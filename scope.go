package scopestate

import "github.com/jpalmerr/scopestate/store"

// Scope is a typed handle to one slice of state.
//
// A Scope addresses its record by identity. The record lives as long as the
// scope is referenced somewhere; once the scope is unreachable the store can
// reclaim the record. T is only enforced here, at the calling layer: the
// store itself holds values untyped.
type Scope[T any] struct {
	key     *store.Key
	initial T
}

// NewScope creates a scope whose record starts at initial.
func NewScope[T any](initial T) *Scope[T] {
	return &Scope[T]{key: store.NewKey(""), initial: initial}
}

// NewNamedScope is like [NewScope] with a diagnostic name. Names do not
// affect identity.
func NewNamedScope[T any](name string, initial T) *Scope[T] {
	return &Scope[T]{key: store.NewKey(name), initial: initial}
}

// Key returns the store key addressed by the scope.
func (s *Scope[T]) Key() *store.Key {
	return s.key
}

// Name returns the diagnostic name, or "" for unnamed scopes.
func (s *Scope[T]) Name() string {
	return s.key.Label()
}

// InitialValue returns the value the scope's record is created with.
func (s *Scope[T]) InitialValue() T {
	return s.initial
}

// ensureRecord creates the scope's record on first use.
func ensureRecord[T any](st *store.Store, scope *Scope[T]) {
	if !st.HasRecord(scope.key) {
		st.CreateRecord(scope.key, scope.initial)
	}
}

// cast restores T from an untyped store value. A nil value is T's zero value.
func cast[T any](raw any) T {
	if raw == nil {
		var zero T
		return zero
	}
	return raw.(T)
}
