package store

import "log/slog"

// Store is the public facade over a [Table]. It creates records, tracks
// subscriptions, performs reads and writes, and notifies observers
// synchronously after each write.
//
// There is no global store. Callers create one per top-level scope (for
// example one per running application) and discard it with its owner.
//
// Store is not safe for concurrent use; see [Shared].
type Store struct {
	records *Table
	logger  *slog.Logger
	inst    Instrumentation
}

// New creates an empty [Store].
func New(opts ...Option) *Store {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	inst := o.instrumentation
	if inst == nil {
		inst = nopInstrumentation{}
	}

	return &Store{
		records: NewTable(),
		logger:  logger,
		inst:    inst,
	}
}

// CreateRecord inserts a record for key holding initial, with no subscribers.
//
// Panics with an [*InvariantError] if a record already exists for key; the
// existing value is left untouched.
func (s *Store) CreateRecord(key *Key, initial any) {
	if key == nil {
		s.violation("createRecord", nil, "nil key")
	}
	if s.records.Has(key) {
		s.violation("createRecord", key, "there already exists a record associated with this key")
	}

	s.records.Set(key, newRecord(initial))
	s.inst.RecordCreated()
	s.logger.Debug("record created", "key", key.String())
}

// HasRecord reports whether a record exists for key. It never panics.
func (s *Store) HasRecord(key *Key) bool {
	return s.records.Has(key)
}

// Subscribe adds observer to the subscribers of key. Subscribing the same
// observer twice has the effect of one subscription.
//
// Panics with an [*InvariantError] if no record exists for key.
func (s *Store) Subscribe(key *Key, observer *Observer) {
	record := s.lookup("subscribe", key)
	if observer == nil {
		s.violation("subscribe", key, "nil observer")
	}

	if record.subscribed(observer) {
		return
	}

	record.subscribers[observer] = struct{}{}
	s.inst.Subscribed()
}

// Unsubscribe removes observer from the subscribers of key. Removing an
// observer that is not subscribed is a no-op.
//
// Panics with an [*InvariantError] if no record exists for key.
func (s *Store) Unsubscribe(key *Key, observer *Observer) {
	record := s.lookup("unsubscribe", key)
	if observer == nil {
		s.violation("unsubscribe", key, "nil observer")
	}
	if !record.subscribed(observer) {
		return
	}

	delete(record.subscribers, observer)
	s.inst.Unsubscribed()
}

// Read returns the current value of key without side effects.
//
// Panics with an [*InvariantError] if no record exists for key.
func (s *Store) Read(key *Key) any {
	return s.lookup("read", key).value
}

// Write sets the value of key, then synchronously notifies every observer
// subscribed to key, in no particular order.
//
// The set of observers is taken when the pass starts. An observer removed
// during the pass is skipped if it has not run yet; an observer added during
// the pass is first notified by the next write. Observers may write again,
// to any key: a nested write completes its own pass before the outer pass
// continues.
//
// Panics with an [*InvariantError] if no record exists for key, before
// anything is changed.
func (s *Store) Write(key *Key, value any) {
	record := s.lookup("write", key)
	record.value = value

	notified := 0
	for _, observer := range record.snapshot() {
		if !record.subscribed(observer) {
			continue
		}
		observer.Notify()
		notified++
	}

	s.inst.Wrote(notified)
	s.logger.Debug("record written", "key", key.String(), "notified", notified)
}

// SubscriberCount returns the number of observers subscribed to key.
//
// Panics with an [*InvariantError] if no record exists for key.
func (s *Store) SubscriberCount(key *Key) int {
	return len(s.lookup("subscriberCount", key).subscribers)
}

// Len returns the number of live records. Records whose key was reclaimed
// are no longer counted.
func (s *Store) Len() int {
	return s.records.Len()
}

// lookup returns the record for key or reports a violation.
func (s *Store) lookup(op string, key *Key) *Record {
	if key == nil {
		s.violation(op, nil, "nil key")
	}
	if !s.records.Has(key) {
		s.violation(op, key, "there is no record associated with this key")
	}
	return s.records.Get(key)
}

// violation logs and counts a broken contract, then panics.
func (s *Store) violation(op string, key *Key, msg string) {
	s.logger.Error("store invariant violated", "op", op, "key", key.String(), "reason", msg)
	s.inst.InvariantViolated(op)
	libBug(op, key, msg)
}
