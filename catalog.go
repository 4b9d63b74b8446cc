package scopestate

import (
	"errors"
	"fmt"
	"regexp"
)

// namePattern restricts catalog names to URL-safe characters.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Catalog maps names to untyped scopes for surfaces that address state by
// name, such as the HTTP server.
//
// The catalog holds its scopes strongly, so their records live as long as the
// catalog. Build it before sharing it; Add is not safe for concurrent use.
type Catalog struct {
	scopes map[string]*Scope[any]
	names  []string
}

// NewCatalog creates an empty [Catalog].
func NewCatalog() *Catalog {
	return &Catalog{scopes: make(map[string]*Scope[any])}
}

// Add creates a named scope starting at initial.
//
// Returns an error if the name is invalid (see [ValidateName]) or already
// taken.
func (c *Catalog) Add(name string, initial any) (*Scope[any], error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, exists := c.scopes[name]; exists {
		return nil, fmt.Errorf("duplicate scope name: %q", name)
	}

	scope := NewNamedScope[any](name, initial)
	c.scopes[name] = scope
	c.names = append(c.names, name)
	return scope, nil
}

// ValidateName checks that name is non-empty and only uses characters from
// [A-Za-z0-9_.-].
func ValidateName(name string) error {
	if name == "" {
		return errors.New("scope name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid scope name %q: only letters, digits, '_', '.' and '-' are allowed", name)
	}
	return nil
}

// Lookup returns the scope registered under name.
func (c *Catalog) Lookup(name string) (*Scope[any], bool) {
	scope, ok := c.scopes[name]
	return scope, ok
}

// Names returns the registered names in registration order. The returned
// slice is a copy.
func (c *Catalog) Names() []string {
	cp := make([]string, len(c.names))
	copy(cp, c.names)
	return cp
}

// Len returns the number of registered scopes.
func (c *Catalog) Len() int {
	return len(c.names)
}
