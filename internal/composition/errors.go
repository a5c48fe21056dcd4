package composition

import (
	"errors"
	"fmt"
)

// Sentinel errors for pattern registration.
var (
	// ErrEmptyPatternName is returned when registering a pattern with no name.
	ErrEmptyPatternName = errors.New("pattern name is empty")

	// ErrUnknownPatternMode is returned for a mode outside the fixed enumeration.
	ErrUnknownPatternMode = errors.New("unknown pattern mode")
)

// Failure reason codes.
const (
	// ReasonNilPattern: evaluation was handed no pattern at all.
	ReasonNilPattern = "nil_pattern"

	// ReasonModeMismatch: the pattern cannot serve the requested entry point.
	ReasonModeMismatch = "mode_mismatch"

	// ReasonInternalPanic: a primitive blew up mid-evaluation.
	ReasonInternalPanic = "internal_panic"
)

// Failure reports why a composed evaluation could not produce a result.
// Callers treat any Failure as a cue to delegate to the matching direct
// implementation; it never carries a partial result.
type Failure struct {
	Reason  string
	Pattern string
	Detail  string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("composition failure (%s) in pattern %q", f.Reason, f.Pattern)
	}
	return fmt.Sprintf("composition failure (%s) in pattern %q: %s", f.Reason, f.Pattern, f.Detail)
}
