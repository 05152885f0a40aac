package types

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrEmptyName is returned when a Name is constructed from an empty
	// or whitespace-only string.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrNameTooLong is returned when a Name's trimmed length exceeds
	// maxNameLen.
	ErrNameTooLong = errors.New("name must not exceed 50 characters")
	// ErrInvalidProbability is returned when a Probability is constructed
	// outside the open interval (0, 1).
	ErrInvalidProbability = errors.New("probability must be in (0, 1)")
	// ErrInvalidLoss is returned when a Loss is constructed from a
	// negative value.
	ErrInvalidLoss = errors.New("loss must be a non-negative integer")
)

// maxNameLen is the longest a trimmed Name may be.
const maxNameLen = 50

// Name is a non-empty, trimmed human-readable label for a tree node, at
// most 50 characters long. Uniqueness of Names within a tree is enforced
// by validation, not by this type: two distinct nodes may legally hold
// equal Names until the tree-level uniqueness rule rejects it.
type Name struct {
	value string
}

// NewName validates and wraps s as a Name. Leading/trailing whitespace
// is trimmed; the trimmed result must be non-empty and at most 50 runes.
func NewName(s string) (Name, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Name{}, ErrEmptyName
	}
	if len([]rune(trimmed)) > maxNameLen {
		return Name{}, ErrNameTooLong
	}
	return Name{value: trimmed}, nil
}

// String returns the underlying label.
func (n Name) String() string { return n.value }

// Equal reports whether two Names hold the same label.
func (n Name) Equal(other Name) bool { return n.value == other.value }

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(data []byte) error {
	name, err := NewName(string(data))
	if err != nil {
		return err
	}
	*n = name
	return nil
}

// Probability is a real number in the open interval (0, 1), used both
// for a leaf's occurrence probability and for Metalog percentiles.
type Probability struct {
	value float64
}

// NewProbability validates and wraps p as a Probability. p must be a
// finite number strictly between 0 and 1.
func NewProbability(p float64) (Probability, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 || p >= 1 {
		return Probability{}, ErrInvalidProbability
	}
	return Probability{value: p}, nil
}

// Float64 returns the underlying value.
func (p Probability) Float64() float64 { return p.value }

// String renders the probability in %g form, using the fewest digits that
// identify the value exactly.
func (p Probability) String() string { return fmt.Sprintf("%g", p.value) }

// Loss is a non-negative 64-bit integer monetary loss, stored in
// whatever currency unit the caller has chosen.
type Loss struct {
	value    int64
	overflow bool
}

// NewLoss validates and wraps v as a Loss. v must be >= 0.
func NewLoss(v int64) (Loss, error) {
	if v < 0 {
		return Loss{}, ErrInvalidLoss
	}
	return Loss{value: v}, nil
}

// ZeroLoss is the additive identity of the outcome monoid.
var ZeroLoss = Loss{}

// Int64 returns the underlying value. Calling it on an overflowed Loss
// returns 0; check IsOverflow first.
func (l Loss) Int64() int64 { return l.value }

// Add returns the sum of two Losses. If the sum would exceed the
// representable range, the result is flagged via IsOverflow rather than
// wrapping, so the outcome monoid can surface SIMULATION_OVERFLOW.
func (l Loss) Add(other Loss) Loss {
	if l.overflow || other.overflow {
		return Loss{overflow: true}
	}
	sum := l.value + other.value
	if sum < l.value || sum < 0 {
		return Loss{overflow: true}
	}
	return Loss{value: sum}
}

// IsOverflow reports whether this Loss has escaped the representable
// range, e.g. after repeated summation. Callers that detect this
// translate it to the SIMULATION_OVERFLOW error code.
func (l Loss) IsOverflow() bool { return l.overflow }

// Less reports whether l < other, for sorting trial losses when building
// exceedance curves.
func (l Loss) Less(other Loss) bool { return l.value < other.value }

// Equal reports whether l and other hold the same value.
func (l Loss) Equal(other Loss) bool { return l.value == other.value }

// String renders the loss as a plain integer.
func (l Loss) String() string {
	if l.overflow {
		return "overflow"
	}
	return fmt.Sprintf("%d", l.value)
}

// MarshalJSON implements json.Marshaler, rendering the loss as a plain
// JSON number so curve/quantile responses don't expose the internal
// overflow flag.
func (l Loss) MarshalJSON() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Loss) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "overflow" || s == `"overflow"` {
		l.overflow = true
		l.value = 0
		return nil
	}
	var v int64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return fmt.Errorf("invalid loss %q: %w", s, err)
	}
	*l = Loss{value: v}
	return nil
}
