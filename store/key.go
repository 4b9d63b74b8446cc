package store

import "fmt"

// Key is an opaque identity token addressing one record.
//
// Keys compare by pointer: two keys created with the same label are different
// keys. The label only shows up in diagnostics.
type Key struct {
	label string
}

// NewKey returns a new, unique key. label may be empty.
func NewKey(label string) *Key {
	return &Key{label: label}
}

// Label returns the diagnostic label the key was created with.
func (k *Key) Label() string {
	if k == nil {
		return ""
	}
	return k.label
}

// String implements fmt.Stringer.
func (k *Key) String() string {
	if k == nil {
		return "<nil>"
	}
	if k.label == "" {
		return fmt.Sprintf("%p", k)
	}
	return fmt.Sprintf("%s@%p", k.label, k)
}

// Observer is a zero-argument notification callback.
//
// Go functions are not comparable, so an observer's identity is the pointer
// returned by [NewObserver]. Pass the same pointer to [Store.Unsubscribe]
// that was passed to [Store.Subscribe].
type Observer struct {
	fn func()
}

// NewObserver wraps fn as an [Observer].
func NewObserver(fn func()) *Observer {
	return &Observer{fn: fn}
}

// Notify invokes the callback. A nil callback is a no-op.
func (o *Observer) Notify() {
	if o.fn != nil {
		o.fn()
	}
}
