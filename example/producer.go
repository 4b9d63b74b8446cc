package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/store"
)

var statuses = []string{"ok", "degraded", "down"}

// runProducer cycles scope through statuses at random 2-6 second intervals
// until ctx is cancelled.
func runProducer(ctx context.Context, shared *store.Shared, scope *scopestate.Scope[any], logger *slog.Logger) {
	shared.Ensure(scope.Key(), scope.InitialValue())

	idx := 0
	for {
		delay := time.Duration(2+rand.Intn(5)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		idx = (idx + 1) % len(statuses)
		shared.Write(scope.Key(), statuses[idx])
		logger.Info("status changed", "scope", scope.Name(), "status", statuses[idx])
	}
}
