// Package errors provides the structured error type used across the
// risk quantification engine. RiskError carries an ErrorCode drawn from
// a closed enum: the validation-field codes named by the request
// validator, plus the operation-level codes (not-found, conflict,
// backend/internal failure) raised by the tree service and resolver.
// Every code classifies into exactly one response Class: VALIDATION
// (400), NOT_FOUND (404), CONFLICT (409), or INTERNAL (500).
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a specific failure condition raised by the engine.
type ErrorCode int

// Error codes. The numeric value is stable within a process but is not
// part of any wire contract — callers compare codes by name via Is,
// never by ordinal.
const (
	// Validation field-error codes (400): the closed set produced by
	// internal/validate when resolving a request DTO into domain types
	// and when checking tree-wide topology rules.
	REQUIRED_FIELD ErrorCode = iota + 1
	INVALID_FORMAT
	INVALID_LENGTH
	INVALID_PATTERN
	INVALID_RANGE
	INVALID_COMBINATION
	INVALID_NODE_TYPE
	INVALID_LOGNORMAL_PARAMS
	INVALID_DISTRIBUTION
	UNSUPPORTED_DISTRIBUTION_TYPE
	MISSING_REFERENCE
	AMBIGUOUS_REFERENCE
	DUPLICATE_VALUE
	EMPTY_COLLECTION
	CONSTRAINT_VIOLATION

	// Not-found errors (404): a referenced entity does not exist.
	TREE_NOT_FOUND
	NODE_NOT_FOUND

	// Conflict errors (409): optimistic-concurrency collision, two
	// mutations racing on the same tree.
	CONFLICT

	// Internal errors (500): the engine itself failed.
	BACKEND_UNAVAILABLE
	SIMULATION_OVERFLOW
	CANCELLED
	INTERNAL
)

var errorCodeNames = map[ErrorCode]string{
	REQUIRED_FIELD:                "REQUIRED_FIELD",
	INVALID_FORMAT:                "INVALID_FORMAT",
	INVALID_LENGTH:                "INVALID_LENGTH",
	INVALID_PATTERN:               "INVALID_PATTERN",
	INVALID_RANGE:                 "INVALID_RANGE",
	INVALID_COMBINATION:           "INVALID_COMBINATION",
	INVALID_NODE_TYPE:             "INVALID_NODE_TYPE",
	INVALID_LOGNORMAL_PARAMS:      "INVALID_LOGNORMAL_PARAMS",
	INVALID_DISTRIBUTION:          "INVALID_DISTRIBUTION",
	UNSUPPORTED_DISTRIBUTION_TYPE: "UNSUPPORTED_DISTRIBUTION_TYPE",
	MISSING_REFERENCE:             "MISSING_REFERENCE",
	AMBIGUOUS_REFERENCE:           "AMBIGUOUS_REFERENCE",
	DUPLICATE_VALUE:               "DUPLICATE_VALUE",
	EMPTY_COLLECTION:              "EMPTY_COLLECTION",
	CONSTRAINT_VIOLATION:          "CONSTRAINT_VIOLATION",
	TREE_NOT_FOUND:                "TREE_NOT_FOUND",
	NODE_NOT_FOUND:                "NODE_NOT_FOUND",
	CONFLICT:                      "CONFLICT",
	BACKEND_UNAVAILABLE:           "BACKEND_UNAVAILABLE",
	SIMULATION_OVERFLOW:           "SIMULATION_OVERFLOW",
	CANCELLED:                     "CANCELLED",
	INTERNAL:                      "INTERNAL",
}

// String returns the canonical name of the error code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return ""
}

// Class is the response classification family of an ErrorCode.
type Class int

const (
	// ClassUnknown is returned for errors not raised by this package.
	ClassUnknown Class = iota
	ClassValidation
	ClassNotFound
	ClassConflict
	ClassInternal
)

// Class returns the response classification for this error code.
func (c ErrorCode) Class() Class {
	switch c {
	case REQUIRED_FIELD, INVALID_FORMAT, INVALID_LENGTH, INVALID_PATTERN,
		INVALID_RANGE, INVALID_COMBINATION, INVALID_NODE_TYPE,
		INVALID_LOGNORMAL_PARAMS, INVALID_DISTRIBUTION,
		UNSUPPORTED_DISTRIBUTION_TYPE, MISSING_REFERENCE, AMBIGUOUS_REFERENCE,
		DUPLICATE_VALUE, EMPTY_COLLECTION, CONSTRAINT_VIOLATION:
		return ClassValidation
	case TREE_NOT_FOUND, NODE_NOT_FOUND:
		return ClassNotFound
	case CONFLICT:
		return ClassConflict
	case BACKEND_UNAVAILABLE, SIMULATION_OVERFLOW, CANCELLED, INTERNAL:
		return ClassInternal
	default:
		return ClassUnknown
	}
}

// HTTPStatus maps a Class to the conventional HTTP status code a
// transport adapter would use. The engine itself never speaks HTTP;
// this is provided as a convenience for callers that do.
func (c Class) HTTPStatus() int {
	switch c {
	case ClassValidation:
		return 400
	case ClassNotFound:
		return 404
	case ClassConflict:
		return 409
	case ClassInternal:
		return 500
	default:
		return 500
	}
}

// RiskError is the error type raised by every internal package. It
// carries a code, a human-readable message, and optionally a wrapped
// cause. When raised by the validator it additionally carries the
// offending request field via WithField.
type RiskError struct {
	code    ErrorCode
	field   string
	message string
	wrapped error
}

// New creates a RiskError with the given code and message.
func New(code ErrorCode, msg string) *RiskError {
	return &RiskError{code: code, message: msg}
}

// Newf creates a RiskError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *RiskError {
	return &RiskError{code: code, message: fmt.Sprintf(format, args...)}
}

// WithField returns a copy of e tagged with the request field it
// concerns, matching the {field, code, message} shape validation errors
// must carry.
func (e *RiskError) WithField(field string) *RiskError {
	cp := *e
	cp.field = field
	return &cp
}

// Field returns the request field this error concerns, or "" if none
// was set.
func (e *RiskError) Field() string { return e.field }

// Wrap attaches context to err, preserving its code if err is (or wraps)
// a RiskError, or using INTERNAL otherwise. Returns nil if err is nil.
func Wrap(err error, context string) *RiskError {
	if err == nil {
		return nil
	}
	code := Code(err)
	if code == ErrorCode(0) {
		code = INTERNAL
	}
	return &RiskError{code: code, message: context, wrapped: err}
}

// Error implements the error interface.
func (e *RiskError) Error() string {
	prefix := e.code.String()
	if e.field != "" {
		prefix = fmt.Sprintf("%s[%s]", prefix, e.field)
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is implements errors.Is comparison: two RiskErrors are equal if they
// carry the same code.
func (e *RiskError) Is(target error) bool {
	var t *RiskError
	if errors.As(target, &t) {
		return e.code == t.code
	}
	return false
}

// Unwrap returns the wrapped cause, if any.
func (e *RiskError) Unwrap() error { return e.wrapped }

// Code extracts the ErrorCode carried by err, or the zero value if err
// is nil or not a RiskError.
func Code(err error) ErrorCode {
	if err == nil {
		return ErrorCode(0)
	}
	var re *RiskError
	if errors.As(err, &re) {
		return re.code
	}
	return ErrorCode(0)
}

// ClassOf extracts the response Class of err, or ClassUnknown.
func ClassOf(err error) Class {
	return Code(err).Class()
}

// IsNotFound reports whether err is a RiskError classified NOT_FOUND.
func IsNotFound(err error) bool { return ClassOf(err) == ClassNotFound }

// IsConflict reports whether err is a RiskError classified CONFLICT.
func IsConflict(err error) bool { return ClassOf(err) == ClassConflict }

// IsValidation reports whether err is a RiskError classified VALIDATION.
func IsValidation(err error) bool { return ClassOf(err) == ClassValidation }

// IsRetriable reports whether a BACKEND_UNAVAILABLE condition caused err,
// the one internal-class code that callers may legitimately retry.
func IsRetriable(err error) bool { return Code(err) == BACKEND_UNAVAILABLE }
