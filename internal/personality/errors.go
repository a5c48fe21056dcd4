package personality

import "errors"

// Configuration errors. SetContext and Push fail loudly on bad input:
// silently clamping a typo'd mood or an out-of-range chaos level would
// hide a caller bug behind statistically plausible behavior.
var (
	// ErrUnknownMood is returned when a mood name is not in the enumeration.
	ErrUnknownMood = errors.New("unknown mood")

	// ErrChaosRange is returned when a chaos level falls outside [1,10].
	ErrChaosRange = errors.New("chaos level out of range")

	// ErrContextUnderflow is returned when Pop would remove the base context.
	ErrContextUnderflow = errors.New("context stack underflow")
)
