package store

// Record is a single slice of state: the current value and the observers
// currently interested in it. Records are owned by a [Table].
type Record struct {
	value       any
	subscribers map[*Observer]struct{}
}

// newRecord is the only constructor for Record.
func newRecord(initial any) *Record {
	return &Record{
		value:       initial,
		subscribers: make(map[*Observer]struct{}),
	}
}

// Value returns the record's current value.
func (r *Record) Value() any {
	return r.value
}

// subscribed reports whether o is in the subscriber set.
func (r *Record) subscribed(o *Observer) bool {
	_, ok := r.subscribers[o]
	return ok
}

// snapshot copies the subscriber set so a notification pass is not affected
// by subscriptions added while it runs.
func (r *Record) snapshot() []*Observer {
	subs := make([]*Observer, 0, len(r.subscribers))
	for o := range r.subscribers {
		subs = append(subs, o)
	}
	return subs
}
