// Package synerr implements the sync engine's error taxonomy (spec §7):
// a small set of categories with distinct propagation policies, wrapped
// with github.com/alecthomas/errors for stack-aware diagnostics.
package synerr

import (
	"github.com/alecthomas/errors"
)

// Category classifies an error for the orchestrator's propagation policy.
type Category int

const (
	CategoryConfig Category = iota
	CategoryAuth
	CategoryTransport
	CategoryRepoState
	CategoryStateStore
	CategoryPath
	CategoryContent
	CategoryTransientRead
)

func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "ConfigError"
	case CategoryAuth:
		return "AuthError"
	case CategoryTransport:
		return "TransportError"
	case CategoryRepoState:
		return "RepoStateError"
	case CategoryStateStore:
		return "StateStoreError"
	case CategoryPath:
		return "PathError"
	case CategoryContent:
		return "ContentError"
	case CategoryTransientRead:
		return "TransientReadError"
	default:
		return "UnknownError"
	}
}

// Error is the sync engine's single error type, carrying a taxonomy
// category alongside the wrapped cause.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return e.Category.String() + ": " + e.Op + ": " + e.Err.Error()
	}
	return e.Category.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(cat Category, op string, err error) *Error {
	return &Error{Category: cat, Op: op, Err: errors.Wrap(err, op)}
}

func ConfigError(op string, err error) *Error        { return newError(CategoryConfig, op, err) }
func AuthError(op string, err error) *Error           { return newError(CategoryAuth, op, err) }
func TransportError(op string, err error) *Error      { return newError(CategoryTransport, op, err) }
func RepoStateError(op string, err error) *Error      { return newError(CategoryRepoState, op, err) }
func StateStoreError(op string, err error) *Error     { return newError(CategoryStateStore, op, err) }
func PathError(op string, err error) *Error           { return newError(CategoryPath, op, err) }
func ContentError(op string, err error) *Error        { return newError(CategoryContent, op, err) }
func TransientReadError(op string, err error) *Error  { return newError(CategoryTransientRead, op, err) }

// IsAbortCategory reports whether err belongs to one of the four
// crawl-aborting categories (Config, Auth, Transport, RepoState), per the
// propagation policy in spec §7.
func IsAbortCategory(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Category {
	case CategoryConfig, CategoryAuth, CategoryTransport, CategoryRepoState:
		return true
	default:
		return false
	}
}

// CategoryOf extracts the Category of err, returning ok=false if err is
// not a *Error.
func CategoryOf(err error) (Category, bool) {
	var se *Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Category, true
}
