// Package store implements the core of scopestate: a synchronous, reactive
// key-value store addressed by identity.
//
// A [Store] associates opaque [Key] handles with mutable values. Observers
// subscribe per key and are notified synchronously after every [Store.Write]
// to that key. The store does not batch, debounce or compare values: every
// write runs its own notification pass.
//
// The main components are:
//
//   - [Key]: identity token addressing one record
//   - [Observer]: zero-argument notification callback with pointer identity
//   - [Table]: identity-keyed record table that holds keys weakly
//   - [Store]: facade for create, read, write, subscribe and notify
//   - [Shared]: mutex-guarded wrapper for use from several goroutines
//
// # Contract
//
// A record must be created with [Store.CreateRecord] before it is read,
// written or subscribed to. Breaking that contract is a programming error:
// the store panics with an [*InvariantError] instead of returning an error.
// Use [IsInvariantViolation] on a recovered value to check the kind.
//
// # Memory
//
// The table never keeps a key alive. Once nothing outside the store
// references a key, its record becomes eligible for reclamation. Values stored
// in a record, and observers subscribed to it, must not reference its key, or
// the key stays reachable until they are written over or unsubscribed.
//
// A Store is not safe for concurrent use. Wrap it in [Shared] when several
// goroutines need access.
package store
