package store

import (
	"errors"
	"fmt"
)

// InvariantError reports a broken store contract: creating a record twice, or
// touching a key that has no record. It always signals a bug in the calling
// code and is raised with panic, never returned.
type InvariantError struct {
	// Op is the store operation that detected the violation.
	Op string

	// Key is the key involved, if any.
	Key *Key

	// Msg describes the violation.
	Msg string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("scopestate: library bug in %s: %s (key %s)", e.Op, e.Msg, e.Key)
	}
	return fmt.Sprintf("scopestate: library bug in %s: %s", e.Op, e.Msg)
}

// IsInvariantViolation reports whether v, typically the result of recover or
// an error, is an [*InvariantError].
func IsInvariantViolation(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var ie *InvariantError
	return errors.As(err, &ie)
}

// libBug panics with an InvariantError.
func libBug(op string, key *Key, msg string) {
	panic(&InvariantError{Op: op, Key: key, Msg: msg})
}
