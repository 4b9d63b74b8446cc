package watch

import (
	"log/slog"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/config"
	"github.com/jpalmerr/scopestate/store"
)

// Reseed returns a callback that writes reloaded scope values through
// shared.
//
// Every scope already in catalog is written, so its subscribers are notified
// even when the value did not change: values are opaque and never compared.
// Scopes added to the file need a restart to be served; they are logged and
// skipped.
func Reseed(shared *store.Shared, catalog *scopestate.Catalog, logger *slog.Logger) func(*config.Config) {
	if logger == nil {
		logger = slog.Default()
	}

	return func(cfg *config.Config) {
		for name, value := range config.Values(cfg) {
			scope, ok := catalog.Lookup(name)
			if !ok {
				logger.Warn("new scope in config ignored until restart", "scope", name)
				continue
			}

			shared.Ensure(scope.Key(), scope.InitialValue())
			shared.Write(scope.Key(), value)
			logger.Debug("scope reseeded", "scope", name)
		}
	}
}
