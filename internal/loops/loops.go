// Package loops implements the four probabilistic iteration semantics:
// gate-continued while loops, per-item execution gates, fuzzy repeat
// counts, and confidence-terminated condition polling.
//
// All decisions are single calls with plain inputs and outputs, so the
// rewritten source never carries framework types. State that must span
// calls (the confidence machinery) lives behind int64 handles issued by
// the runner.
package loops

import (
	"fmt"
	"math"
	"sync"

	"sorta/internal/chance"
	"sorta/internal/personality"
	"sorta/internal/telemetry"
)

// Default limit values. A fresh runner starts with these; SetLimits
// overrides them per runner.
const (
	DefaultMaxWhileCycles = 10000
	DefaultSampleWindow   = 100
	DefaultMinSamples     = 10
	DefaultMaxEvaluations = 5000
)

// Limits bounds the runaway protection of a runner: the while-loop
// safety cap and the sizing of the confidence machinery.
type Limits struct {
	// MaxWhileCycles is the safety cap for gate-continued loops. A run
	// of lucky draws cannot spin past it; hitting it records a
	// cap-exceeded event and terminates the loop instead of failing
	// the program.
	MaxWhileCycles int

	// SampleWindow is how many recent condition samples feed the
	// confidence estimate of a polling loop.
	SampleWindow int

	// MinSamples is the sample count required before any confidence
	// decision; below it a polling loop always continues.
	MinSamples int

	// MaxEvaluations bounds total condition evaluations per polling
	// loop; reaching it terminates the loop with a timeout event.
	MaxEvaluations int
}

// DefaultLimits returns the package defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxWhileCycles: DefaultMaxWhileCycles,
		SampleWindow:   DefaultSampleWindow,
		MinSamples:     DefaultMinSamples,
		MaxEvaluations: DefaultMaxEvaluations,
	}
}

// normalized fills non-positive fields with their defaults and keeps
// the field relationships coherent.
func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxWhileCycles <= 0 {
		l.MaxWhileCycles = d.MaxWhileCycles
	}
	if l.SampleWindow <= 0 {
		l.SampleWindow = d.SampleWindow
	}
	if l.MinSamples <= 0 {
		l.MinSamples = d.MinSamples
	}
	if l.MaxEvaluations <= 0 {
		l.MaxEvaluations = d.MaxEvaluations
	}
	// A minimum above the window could never be met.
	if l.MinSamples > l.SampleWindow {
		l.MinSamples = l.SampleWindow
	}
	return l
}

// Runner makes loop decisions against a personality context, a seeded
// draw source, and a telemetry recorder.
type Runner struct {
	resolver *personality.Resolver
	source   *chance.Source
	recorder *telemetry.Recorder

	mu         sync.Mutex
	limits     Limits
	nextHandle int64
	eventual   map[int64]*eventualState
}

// NewRunner wires a runner to its collaborators. All three are required.
func NewRunner(resolver *personality.Resolver, source *chance.Source, recorder *telemetry.Recorder) *Runner {
	return &Runner{
		resolver: resolver,
		source:   source,
		recorder: recorder,
		limits:   DefaultLimits(),
		eventual: make(map[int64]*eventualState),
	}
}

// SetLimits replaces the runner's safety limits. Non-positive fields
// take the package defaults. Polling loops already in flight keep the
// sizing they started with.
func (r *Runner) SetLimits(l Limits) {
	r.mu.Lock()
	r.limits = l.normalized()
	r.mu.Unlock()
}

// Limits returns the runner's current safety limits.
func (r *Runner) Limits() Limits {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limits
}

// ContinueWhile decides one cycle of a gate-continued while loop.
//
// A false condition terminates the loop before any randomness is
// consulted; the probabilistic gate can only end a loop early, never
// keep a finished one alive. Past the condition, the cycle count is
// checked against the while-cycle cap, then a single draw against the
// continuation probability decides the cycle.
func (r *Runner) ContinueWhile(cycle int, cond bool) bool {
	if !cond {
		return false
	}
	r.mu.Lock()
	limit := r.limits.MaxWhileCycles
	r.mu.Unlock()
	if cycle >= limit {
		r.recorder.RecordEvent(telemetry.EventCapExceeded, personality.KindLoopContinuation,
			fmt.Sprintf("terminated after %d cycles", cycle))
		return false
	}
	p := r.resolver.ProbabilityFor(personality.KindLoopContinuation)
	pass := r.source.Gate(p)
	r.recorder.RecordOutcome(personality.KindLoopContinuation, pass)
	return pass
}

// PerItemGate decides whether the body runs for one element of a
// per-item loop. Elements are never retried or reordered; a failed draw
// skips the body for that element only.
func (r *Runner) PerItemGate() bool {
	p := r.resolver.ProbabilityFor(personality.KindLoopPerItem)
	pass := r.source.Gate(p)
	r.recorder.RecordOutcome(personality.KindLoopPerItem, pass)
	return pass
}

// RepeatCount draws the fuzzy iteration total for a repeat loop: one
// draw per loop invocation, centered on n, spread by the resolved repeat
// variance, clamped to a non-negative integer. The loop that consumes
// the count iterates plainly with no further randomness.
func (r *Runner) RepeatCount(n int) int {
	if n <= 0 {
		return 0
	}
	v := r.resolver.VarianceFor(personality.KindRepeatVariance)
	if v == 0 {
		return n
	}
	// Spread is calibrated so ~95% of draws land within n*(1±v).
	sigma := float64(n) * v / 2
	count := int(math.Round(float64(n) + r.source.Noise(sigma)))
	if count < 0 {
		return 0
	}
	return count
}
