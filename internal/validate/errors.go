// Package validate resolves request DTOs into the risktree domain
// types, accumulating every violation found rather than stopping at the
// first one, so a caller sees the complete set of problems with a
// request in a single round trip.
package validate

import (
	"strings"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
)

// Errors accumulates field-level violations found while resolving a
// request. The zero value is ready to use.
type Errors struct {
	items []*riskerrors.RiskError
}

// Add records a field violation. err is typically built via
// riskerrors.Newf(code, ...).WithField(field).
func (e *Errors) Add(err *riskerrors.RiskError) {
	e.items = append(e.items, err)
}

// Addf is a convenience wrapper around Add for the common case of a
// single formatted message tagged with a field.
func (e *Errors) Addf(code riskerrors.ErrorCode, field, format string, args ...any) {
	e.Add(riskerrors.Newf(code, format, args...).WithField(field))
}

// HasErrors reports whether any violation has been recorded.
func (e *Errors) HasErrors() bool { return len(e.items) > 0 }

// List returns every recorded violation, in the order Add was called.
func (e *Errors) List() []*riskerrors.RiskError { return e.items }

// Err returns nil if no violations were recorded, or e itself
// (satisfying the error interface) otherwise — the idiomatic
// "build up, then check once" pattern resolvers use.
func (e *Errors) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Error renders every accumulated violation as a single one-line
// message, the violations separated by "; ".
func (e *Errors) Error() string {
	parts := make([]string, len(e.items))
	for i, item := range e.items {
		parts[i] = item.Error()
	}
	return strings.Join(parts, "; ")
}
