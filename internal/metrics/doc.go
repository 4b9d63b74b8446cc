// Package metrics exports store activity as Prometheus metrics.
//
// [Collector] implements store.Instrumentation. It is wired by
// scopestate.WithMetrics and by the standalone server.
//
// Several stores may share one registry; their events add up in the same
// metrics. scopestate_subscriptions_active counts subscriptions that were
// never unsubscribed, including those of stores already discarded.
package metrics
