// Package fuzzy is the runtime library transformed sorta programs call
// into. Every fuzzy marker in a .sorta file rewrites to one of the
// functions here: conditional gates at four probability tiers,
// the four probabilistic loop primitives, and the tolerance operations
// behind ~ish and ~kinda.
//
// All package-level functions operate on a process-wide default Runtime,
// which matches the single-threaded execution model of transformed
// programs. Behavior is governed by the active personality context
// (mood + chaos level); see SetContext and WithContext.
package fuzzy

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"sorta/internal/chance"
	"sorta/internal/telemetry"
)

var (
	defaultMu sync.RWMutex
	defaultRT = NewRuntime()
)

// Default returns the process-wide runtime.
func Default() *Runtime {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRT
}

// SetDefault swaps the process-wide runtime and returns the previous
// one. Tests use this to install a seeded runtime.
func SetDefault(rt *Runtime) *Runtime {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultRT
	if rt != nil {
		defaultRT = rt
	}
	return prev
}

// Sometimes passes about half the time under the default playful mood.
// An optional guard condition short-circuits to false without a draw.
func Sometimes(cond ...bool) bool { return Default().Sometimes(cond...) }

// Maybe passes a bit more often than Sometimes.
func Maybe(cond ...bool) bool { return Default().Maybe(cond...) }

// Probably passes most of the time.
func Probably(cond ...bool) bool { return Default().Probably(cond...) }

// Rarely passes seldom.
func Rarely(cond ...bool) bool { return Default().Rarely(cond...) }

// SometimesWhile decides one cycle of a gate-continued while loop.
func SometimesWhile(cycle int, cond bool) bool { return Default().SometimesWhile(cycle, cond) }

// MaybeFor decides whether the body runs for the current loop element.
func MaybeFor() bool { return Default().MaybeFor() }

// KindaRepeat draws the fuzzy iteration total for a repeat loop.
func KindaRepeat(n int) int { return Default().KindaRepeat(n) }

// EventuallyBegin opens a confidence-terminated loop.
func EventuallyBegin() int64 { return Default().EventuallyBegin() }

// EventuallyUntil records one condition sample and reports whether the
// loop should keep running.
func EventuallyUntil(handle int64, cond bool) bool { return Default().EventuallyUntil(handle, cond) }

// IshCompare reports whether two values are close enough under the
// active tolerance.
func IshCompare(left, right any, tolerance ...float64) bool {
	return Default().IshCompare(left, right, tolerance...)
}

// Number covers the numeric types the tolerance operations accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// IshAssign produces the fuzzy-assignment value for current: drift when
// no target is given, otherwise a gated partial move toward the target.
// The result keeps the type of its inputs, so integers stay integers.
func IshAssign[T Number](current T, target ...T) T {
	rt := Default()
	if len(target) == 0 {
		return numberFrom[T](rt.ishAssign(float64(current)))
	}
	return numberFrom[T](rt.ishAssign(float64(current), float64(target[0])))
}

// IshValue returns v with tolerance-scaled noise applied, keeping v's type.
func IshValue[T Number](v T) T {
	return numberFrom[T](Default().drift(float64(v)))
}

// Kinda returns v with declaration noise applied, keeping v's type.
// It backs fuzzy declarations and reassignments.
func Kinda[T Number](v T) T {
	return numberFrom[T](Default().drift(float64(v)))
}

// IshAssignAny is the dynamically-typed twin of IshAssign for callers
// holding values as any. Non-numeric inputs come back unchanged. The
// result keeps the dominant input type: all-integral inputs produce an
// int64, anything else a float64.
func IshAssignAny(current any, target ...any) any {
	rt := Default()
	cur, ok := chance.ToNumber(current)
	if !ok {
		return current
	}
	integral := chance.IsIntegral(current)
	var res float64
	if len(target) == 0 {
		res = rt.ishAssign(cur)
	} else {
		tgt, ok := chance.ToNumber(target[0])
		if !ok {
			return current
		}
		integral = integral && chance.IsIntegral(target[0])
		res = rt.ishAssign(cur, tgt)
	}
	return anyNumber(res, integral)
}

// IshValueAny is the dynamically-typed twin of IshValue.
func IshValueAny(v any) any {
	return driftAny(v)
}

// KindaAny is the dynamically-typed twin of Kinda.
func KindaAny(v any) any {
	return driftAny(v)
}

func driftAny(v any) any {
	num, ok := chance.ToNumber(v)
	if !ok {
		return v
	}
	return anyNumber(Default().drift(num), chance.IsIntegral(v))
}

// SetContext replaces the active personality context on the default
// runtime. Unknown moods and out-of-range chaos levels are rejected.
func SetContext(mood string, chaos int) error { return Default().SetContext(mood, chaos) }

// PushContext installs a scoped context override.
func PushContext(mood string, chaos int) error { return Default().PushContext(mood, chaos) }

// PopContext restores the context active before the matching PushContext.
func PopContext() error { return Default().PopContext() }

// WithContext runs fn under a scoped override and guarantees restoration.
func WithContext(mood string, chaos int, fn func()) error {
	return Default().WithContext(mood, chaos, fn)
}

// Context returns the active mood and chaos level.
func Context() (mood string, chaos int) { return Default().Context() }

// Seed reseeds the default runtime; 0 draws a fresh entropy seed.
func Seed(seed int64) { Default().Seed(seed) }

// SetLoopLimits adjusts the default runtime's loop runaway protection.
// Non-positive values keep the defaults.
func SetLoopLimits(maxWhileCycles, sampleWindow, minSamples, maxEvaluations int) {
	Default().SetLoopLimits(maxWhileCycles, sampleWindow, minSamples, maxEvaluations)
}

// SetLogger attaches a logger for chaos-event diagnostics.
func SetLogger(log *zap.Logger) { Default().SetLogger(log) }

// Snapshot returns a copy of the default runtime's telemetry.
func Snapshot() telemetry.Snapshot { return Default().Snapshot() }

// numberFrom converts a draw back to the caller's numeric type. Integral
// types round instead of truncating, and unsigned types floor at zero so
// a negative drift cannot wrap around.
func numberFrom[T Number](v float64) T {
	if isIntegralType[T]() {
		if v < 0 && isUnsignedType[T]() {
			return 0
		}
		return T(math.Round(v))
	}
	return T(v)
}

// isIntegralType reports whether T discards fractions.
func isIntegralType[T Number]() bool {
	half := 0.5
	return T(half) == T(0)
}

// isUnsignedType reports whether T wraps below zero.
func isUnsignedType[T Number]() bool {
	return T(0)-T(1) > T(0)
}

// anyNumber renders a numeric result in the dominant input type.
func anyNumber(v float64, integral bool) any {
	if integral {
		return int64(math.Round(v))
	}
	return v
}
