package fuzzy

import (
	"go.uber.org/zap"

	"sorta/internal/chance"
	"sorta/internal/composition"
	"sorta/internal/loops"
	"sorta/internal/personality"
	"sorta/internal/telemetry"
)

// Runtime bundles everything a transformed program draws on: the active
// personality context, the seeded randomness source, the loop runner,
// the composition framework, and the telemetry recorder.
//
// Transformed code goes through the process-wide default runtime via the
// package-level functions; building a Runtime directly is mainly for
// tests and embedding.
type Runtime struct {
	resolver *personality.Resolver
	source   *chance.Source
	recorder *telemetry.Recorder
	loops    *loops.Runner
	patterns *composition.Registry
	compose  *composition.Framework

	comparePattern *composition.Pattern
	assignPattern  *composition.Pattern
	driftPattern   *composition.Pattern
}

// NewRuntime builds a runtime with an entropy-seeded source and the
// default personality context.
func NewRuntime() *Runtime {
	return NewSeededRuntime(0)
}

// NewSeededRuntime builds a runtime whose draws replay deterministically
// for the given seed. Seed 0 means draw a fresh entropy seed.
func NewSeededRuntime(seed int64) *Runtime {
	resolver := personality.NewResolver()
	source := chance.NewSource(seed)
	recorder := telemetry.NewRecorder()
	patterns := composition.NewRegistry()

	rt := &Runtime{
		resolver: resolver,
		source:   source,
		recorder: recorder,
		loops:    loops.NewRunner(resolver, source, recorder),
		patterns: patterns,
		compose:  composition.NewFramework(resolver, source, recorder),
	}
	rt.comparePattern = patterns.MustRegister("ish_compare", composition.ModeComparison)
	rt.assignPattern = patterns.MustRegister("ish_assign", composition.ModeAssignment)
	rt.driftPattern = patterns.MustRegister("kinda_drift", composition.ModeAssignment)
	return rt
}

// ===== Conditional gates =====

// Sometimes passes with the sometimes-tier probability under the active
// context. An optional condition guards the draw: a false condition is a
// deterministic false and consumes no randomness.
func (rt *Runtime) Sometimes(cond ...bool) bool {
	return rt.tierGate(personality.TierSometimes, cond)
}

// Maybe passes with the maybe-tier probability.
func (rt *Runtime) Maybe(cond ...bool) bool {
	return rt.tierGate(personality.TierMaybe, cond)
}

// Probably passes with the probably-tier probability.
func (rt *Runtime) Probably(cond ...bool) bool {
	return rt.tierGate(personality.TierProbably, cond)
}

// Rarely passes with the rarely-tier probability.
func (rt *Runtime) Rarely(cond ...bool) bool {
	return rt.tierGate(personality.TierRarely, cond)
}

func (rt *Runtime) tierGate(t personality.Tier, cond []bool) bool {
	for _, c := range cond {
		if !c {
			return false
		}
	}
	pass := rt.source.Gate(rt.resolver.TierProbability(t))
	rt.recorder.RecordOutcome(personality.KindConditionalGate, pass)
	return pass
}

// ===== Loop constructs =====

// SometimesWhile decides one cycle of a gate-continued while loop.
// cycle is the zero-based cycle counter carried by the rewritten loop.
func (rt *Runtime) SometimesWhile(cycle int, cond bool) bool {
	return rt.loops.ContinueWhile(cycle, cond)
}

// MaybeFor decides whether the loop body runs for the current element.
func (rt *Runtime) MaybeFor() bool {
	return rt.loops.PerItemGate()
}

// KindaRepeat draws the fuzzy iteration total for a repeat loop.
func (rt *Runtime) KindaRepeat(n int) int {
	return rt.loops.RepeatCount(n)
}

// EventuallyBegin opens a confidence-terminated loop and returns its handle.
func (rt *Runtime) EventuallyBegin() int64 {
	return rt.loops.EventuallyBegin()
}

// EventuallyUntil records one condition sample and reports whether the
// loop should keep running.
func (rt *Runtime) EventuallyUntil(handle int64, cond bool) bool {
	return rt.loops.EventuallyContinue(handle, cond)
}

// ===== Tolerance constructs =====

// IshCompare reports whether two values are close enough under the
// active tolerance. Operands may be any numeric type, bools, or numeric
// strings; anything else fails soft with a biased-false verdict. An
// explicit tolerance overrides the personality-resolved width.
//
// A composed evaluation that fails internally silently delegates to the
// direct implementation and records the fallback, so this never raises.
func (rt *Runtime) IshCompare(left, right any, tolerance ...float64) bool {
	res, err := rt.compose.Comparison(rt.comparePattern, left, right, tolerance...)
	if err != nil {
		rt.fallback("comparison", err)
		return rt.compose.DirectComparison(left, right, tolerance...)
	}
	return res
}

// ishAssign is the numeric core behind IshAssign.
func (rt *Runtime) ishAssign(current float64, target ...float64) float64 {
	res, err := rt.compose.Assignment(rt.assignPattern, current, target...)
	if err != nil {
		rt.fallback("assignment", err)
		return rt.compose.DirectAssignment(current, target...)
	}
	return res
}

// drift is the numeric core behind IshValue and Kinda.
func (rt *Runtime) drift(v float64) float64 {
	res, err := rt.compose.Assignment(rt.driftPattern, v)
	if err != nil {
		rt.fallback("drift", err)
		return rt.compose.DirectAssignment(v)
	}
	return res
}

func (rt *Runtime) fallback(entry string, err error) {
	rt.recorder.RecordEvent(telemetry.EventCompositionFallback, personality.KindToleranceWidth,
		entry+": "+err.Error())
}

// ===== Context and configuration =====

// SetContext replaces the active personality context. Unknown moods and
// out-of-range chaos levels are rejected, never clamped.
func (rt *Runtime) SetContext(mood string, chaos int) error {
	return rt.resolver.SetContext(personality.Mood(mood), chaos)
}

// PushContext installs a scoped context override.
func (rt *Runtime) PushContext(mood string, chaos int) error {
	return rt.resolver.Push(personality.Mood(mood), chaos)
}

// PopContext removes the most recent override and restores the previous
// context.
func (rt *Runtime) PopContext() error {
	return rt.resolver.Pop()
}

// WithContext runs fn under a scoped override and restores the previous
// context on exit, panics included.
func (rt *Runtime) WithContext(mood string, chaos int, fn func()) error {
	return rt.resolver.With(personality.Mood(mood), chaos, fn)
}

// Context returns the active mood and chaos level.
func (rt *Runtime) Context() (mood string, chaos int) {
	c := rt.resolver.Current()
	return string(c.Mood), c.Chaos
}

// Seed reseeds the randomness source; 0 draws a fresh entropy seed.
func (rt *Runtime) Seed(seed int64) {
	rt.source.Reseed(seed)
}

// SetLoopLimits adjusts the runaway protection for loop constructs: the
// while-cycle cap and the confidence machinery's sample window, minimum
// sample count, and evaluation budget. Non-positive values keep the
// defaults.
func (rt *Runtime) SetLoopLimits(maxWhileCycles, sampleWindow, minSamples, maxEvaluations int) {
	rt.loops.SetLimits(loops.Limits{
		MaxWhileCycles: maxWhileCycles,
		SampleWindow:   sampleWindow,
		MinSamples:     minSamples,
		MaxEvaluations: maxEvaluations,
	})
}

// SetLogger attaches a logger for chaos-event diagnostics.
func (rt *Runtime) SetLogger(log *zap.Logger) {
	rt.recorder.SetLogger(log)
}

// Snapshot returns a copy of the run's telemetry.
func (rt *Runtime) Snapshot() telemetry.Snapshot {
	return rt.recorder.Snapshot()
}

// Recorder exposes the telemetry recorder, mainly for persistence.
func (rt *Runtime) Recorder() *telemetry.Recorder {
	return rt.recorder
}

// Patterns lists the composition patterns the runtime has registered.
func (rt *Runtime) Patterns() []*composition.Pattern {
	return rt.patterns.List()
}
