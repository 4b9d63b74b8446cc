// Package scopestate provides scoped, reactive state backed by an
// identity-keyed store.
//
// A [Scope] is a typed handle to one slice of state. It carries an initial
// value and addresses a record in a [store.Store] by identity: two scopes are
// never the same scope, even when created with equal initial values.
//
// # Quick Start
//
// Create a store, attach it to a context, and bind to a scope:
//
//	var Greeting = scopestate.NewNamedScope("greeting", "Yada")
//
//	st, _ := scopestate.New(scopestate.WithLogger(logger))
//	ctx := scopestate.WithStore(context.Background(), st)
//
//	b, err := scopestate.Bind(ctx, Greeting, func() {
//	    // called synchronously after every write to Greeting
//	})
//	if err != nil {
//	    return err // ErrStoreMissing when ctx carries no store
//	}
//	defer b.Close()
//
//	b.Set("Duba")
//	fmt.Println(b.Get()) // Duba
//
// # Access Modes
//
// Two thin views sit on top of the same store operations:
//
//   - [Binding]: read, write and react. Subscribes an observer on creation.
//   - [Writer]: write only. Never subscribes, so the owner is not notified.
//
// [Initialize] writes a value through a [Writer] to seed a scope on every
// call. An [Initializer] seeds once per scope for owners whose setup runs
// repeatedly.
//
// # Errors
//
// [ErrStoreMissing] is the only error meant for end consumers. Any other
// failure is a broken store contract and panics with a *store.InvariantError.
//
// # Architecture
//
//   - store: the record table, records, and the store facade
//   - config: YAML/TOML seed configuration for the standalone server
//   - internal/metrics: Prometheus instrumentation
//   - internal/server: HTTP, SSE and WebSocket access to a shared store
//   - internal/watch: re-applies seed values when the config file changes
//   - cmd/scopestate: the standalone server CLI
package scopestate
