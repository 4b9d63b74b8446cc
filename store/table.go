package store

import (
	"runtime"
	"sync"
	"weak"
)

// Table maps keys to records by identity.
//
// Keys are held through weak pointers: the table is never the reason a key
// stays alive. When a key becomes unreachable, a cleanup registered on first
// insertion removes its entry, and the record goes with it.
//
// The reverse also holds: a live key never keeps its table alive. Key
// cleanups reach the table only through a weak pointer, and once the table
// itself is reclaimed its pending key cleanups are stopped.
//
// Table does not enforce uniqueness; [Store] does. The mutex only guards the
// maps against the runtime's cleanup goroutine.
type Table struct {
	mu       sync.Mutex
	records  map[weak.Pointer[Key]]*Record
	cleanups map[weak.Pointer[Key]]runtime.Cleanup
}

// evictRef is the argument of a key cleanup. It holds nothing strongly.
type evictRef struct {
	table weak.Pointer[Table]
	key   weak.Pointer[Key]
}

// NewTable creates an empty [Table].
func NewTable() *Table {
	t := &Table{
		records:  make(map[weak.Pointer[Key]]*Record),
		cleanups: make(map[weak.Pointer[Key]]runtime.Cleanup),
	}
	// the argument must not reach t; the cleanup map holds no records
	runtime.AddCleanup(t, stopCleanups, t.cleanups)
	return t
}

// Has reports whether a record is associated with key.
func (t *Table) Has(key *Key) bool {
	if key == nil {
		return false
	}
	wp := weak.Make(key)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[wp]
	return ok
}

// Set associates record with key, silently replacing any previous record.
func (t *Table) Set(key *Key, record *Record) {
	if key == nil {
		libBug("table.set", nil, "nil key")
	}
	wp := weak.Make(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[wp] = record

	// one cleanup per key; a replaced record reuses the existing one
	if _, ok := t.cleanups[wp]; !ok {
		t.cleanups[wp] = runtime.AddCleanup(key, evict, evictRef{table: weak.Make(t), key: wp})
	}
}

// Get returns the record associated with key. A missing record is an
// invariant violation and panics.
func (t *Table) Get(key *Key) *Record {
	if key == nil {
		libBug("table.get", nil, "nil key")
	}
	wp := weak.Make(key)

	t.mu.Lock()
	record, ok := t.records[wp]
	t.mu.Unlock()

	if !ok {
		libBug("table.get", key, "there is no record associated with this key")
	}
	return record
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// evict runs on the runtime's cleanup goroutine once a key is unreachable.
// It does nothing if the table is already gone.
func evict(ref evictRef) {
	t := ref.table.Value()
	if t == nil {
		return
	}

	t.mu.Lock()
	delete(t.records, ref.key)
	delete(t.cleanups, ref.key)
	t.mu.Unlock()
}

// stopCleanups runs once a table is unreachable. No method can touch the
// table anymore, so the map is read without the lock.
func stopCleanups(cleanups map[weak.Pointer[Key]]runtime.Cleanup) {
	for _, c := range cleanups {
		c.Stop()
	}
}
