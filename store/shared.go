package store

import "sync"

// Shared guards a [Store] with a single mutex so that several goroutines can
// use it. Every call to [Shared.With] runs with exclusive access, covering the
// whole read-modify-notify sequence of a write.
//
// Observers run while the lock is held and must not call back into Shared.
type Shared struct {
	mu    sync.Mutex
	store *Store
}

// NewShared wraps s.
func NewShared(s *Store) *Shared {
	return &Shared{store: s}
}

// With runs fn with exclusive access to the store. A panic inside fn
// releases the lock and propagates.
func (sh *Shared) With(fn func(s *Store)) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.store)
}

// Ensure creates a record for key holding initial if none exists yet.
func (sh *Shared) Ensure(key *Key, initial any) {
	sh.With(func(s *Store) {
		if !s.HasRecord(key) {
			s.CreateRecord(key, initial)
		}
	})
}

// Read returns the current value of key.
func (sh *Shared) Read(key *Key) any {
	var v any
	sh.With(func(s *Store) {
		v = s.Read(key)
	})
	return v
}

// Write sets the value of key and notifies its observers.
func (sh *Shared) Write(key *Key, value any) {
	sh.With(func(s *Store) {
		s.Write(key, value)
	})
}
