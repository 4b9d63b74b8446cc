package config

import (
	"fmt"

	"github.com/jpalmerr/scopestate"
)

// BuildCatalog converts parsed configuration into a [scopestate.Catalog].
//
// Scopes are registered in file order with their configured value as the
// initial value.
func BuildCatalog(cfg *Config) (*scopestate.Catalog, error) {
	catalog := scopestate.NewCatalog()

	for i, sc := range cfg.Scopes {
		if _, err := catalog.Add(sc.Name, sc.Value); err != nil {
			return nil, fmt.Errorf("scopes[%d]: %w", i, err)
		}
	}

	return catalog, nil
}

// Values returns the configured value of every scope keyed by name.
func Values(cfg *Config) map[string]any {
	values := make(map[string]any, len(cfg.Scopes))
	for _, sc := range cfg.Scopes {
		values[sc.Name] = sc.Value
	}
	return values
}
