// Package server exposes a shared scopestate store over HTTP.
//
// The server addresses records through a [scopestate.Catalog] of named
// scopes and provides:
//
//   - Health check: "GET /healthz"
//   - REST API: "GET /api/scopes", "GET /api/scopes/{name}" and
//     "PUT /api/scopes/{name}" (JSON body becomes the new value)
//   - Server-Sent Events: "GET /api/sse?scope=a&scope=b" streams the current
//     values, then one event per notification
//   - WebSocket: "GET /api/ws" accepts read, write, subscribe and unsubscribe
//     requests and pushes value updates for subscribed scopes
//   - Prometheus metrics at "/metrics" when a gatherer is configured
//
// Every store access goes through a [store.Shared], so HTTP handlers never
// touch the store concurrently. Records are created on first access with the
// scope's initial value.
//
// The server supports graceful shutdown via context cancellation.
package server
