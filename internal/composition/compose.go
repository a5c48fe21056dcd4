package composition

import (
	"fmt"
	"math"

	"sorta/internal/chance"
	"sorta/internal/personality"
	"sorta/internal/telemetry"
)

const (
	// fuzzFactor sizes the independent noise applied to the tolerance and
	// to the difference, as a fraction of the tolerance width.
	fuzzFactor = 0.1

	// flipFraction sizes the final outcome gate: the comparison verdict
	// flips with probability flipFraction*(1-gate), so steadier moods
	// flip less and chaotic moods flip more.
	flipFraction = 0.1

	// blendCenter and blendSigma shape the fuzzed blend factor used when
	// an assignment moves a value partway toward its target.
	blendCenter = 0.5
	blendSigma  = 0.15
)

// Framework evaluates patterns against a personality context, a seeded
// draw source, and a telemetry recorder.
type Framework struct {
	resolver *personality.Resolver
	source   *chance.Source
	recorder *telemetry.Recorder
}

// NewFramework wires an evaluation framework. All three collaborators
// are required.
func NewFramework(resolver *personality.Resolver, source *chance.Source, recorder *telemetry.Recorder) *Framework {
	return &Framework{resolver: resolver, source: source, recorder: recorder}
}

// Comparison evaluates a tolerance comparison through pattern p. A
// returned *Failure means the composed evaluation produced nothing and
// the caller should delegate to DirectComparison. Soft conversion
// failures are not Failures: they resolve inside as biased-false
// verdicts with a recorded conversion event.
func (f *Framework) Comparison(p *Pattern, left, right any, tolerance ...float64) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = &Failure{Reason: ReasonInternalPanic, Pattern: patternLabel(p), Detail: fmt.Sprint(r)}
		}
	}()

	if p == nil {
		return false, &Failure{Reason: ReasonNilPattern}
	}
	if p.Mode != ModeComparison {
		return false, &Failure{Reason: ReasonModeMismatch, Pattern: p.String(), Detail: "want comparison mode"}
	}

	l, okL := f.convert(left)
	r, okR := f.convert(right)
	if !okL || !okR {
		f.recorder.RecordEvent(telemetry.EventConversionFailure, personality.KindToleranceWidth,
			fmt.Sprintf("non-numeric operand in %T ~ %T", left, right))
		// Soft failure stays biased false: the verdict enters the final
		// gate as false and can only flip with the usual flip odds.
		return f.outcome(f.gateVerdict(false)), nil
	}

	width := f.toleranceWidth(l, r, tolerance)
	fuzzedTol := width + f.noise(width*fuzzFactor)
	fuzzedDiff := math.Abs(l-r) + f.noise(width*fuzzFactor)
	return f.outcome(f.gateVerdict(fuzzedDiff <= fuzzedTol)), nil
}

// Assignment evaluates a fuzzy assignment through pattern p: plain drift
// when no target is given, a gated partial move toward the target
// otherwise. A returned *Failure means the caller should delegate to
// DirectAssignment.
func (f *Framework) Assignment(p *Pattern, current float64, target ...float64) (result float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = 0
			err = &Failure{Reason: ReasonInternalPanic, Pattern: patternLabel(p), Detail: fmt.Sprint(r)}
		}
	}()

	if p == nil {
		return 0, &Failure{Reason: ReasonNilPattern}
	}
	if p.Mode != ModeAssignment {
		return 0, &Failure{Reason: ReasonModeMismatch, Pattern: p.String(), Detail: "want assignment mode"}
	}

	if len(target) == 0 {
		return current + f.noise(f.driftSigma(current)), nil
	}
	if f.gate(f.resolver.ProbabilityFor(personality.KindConditionalGate)) {
		return current + (target[0]-current)*f.blend(), nil
	}
	return current + f.noise(f.driftSigma(current)), nil
}

// DirectComparison is the non-composed tolerance comparison. It performs
// the same conversion, fuzzing, and gating as the composed path, without
// going through a pattern, and serves as the fallback target.
func (f *Framework) DirectComparison(left, right any, tolerance ...float64) bool {
	l, okL := chance.ToNumber(left)
	r, okR := chance.ToNumber(right)
	if !okL || !okR {
		f.recorder.RecordEvent(telemetry.EventConversionFailure, personality.KindToleranceWidth,
			fmt.Sprintf("non-numeric operand in %T ~ %T", left, right))
		return f.outcome(f.gateVerdict(false))
	}

	width := f.toleranceWidth(l, r, tolerance)
	fuzzedTol := width + f.source.Noise(width*fuzzFactor)
	fuzzedDiff := math.Abs(l-r) + f.source.Noise(width*fuzzFactor)
	return f.outcome(f.gateVerdict(fuzzedDiff <= fuzzedTol))
}

// DirectAssignment is the non-composed fuzzy assignment and the fallback
// target for assignment-mode evaluation.
func (f *Framework) DirectAssignment(current float64, target ...float64) float64 {
	if len(target) == 0 {
		return current + f.source.Noise(f.driftSigma(current))
	}
	if f.source.Gate(f.resolver.ProbabilityFor(personality.KindConditionalGate)) {
		blend := clamp01(blendCenter + f.source.Noise(blendSigma))
		return current + (target[0]-current)*blend
	}
	return current + f.source.Noise(f.driftSigma(current))
}

// toleranceWidth resolves the comparison tolerance: the explicit width
// when supplied, otherwise the personality-resolved width scaled by the
// larger operand magnitude (floored at 1 so near-zero operands keep a
// usable band).
func (f *Framework) toleranceWidth(l, r float64, explicit []float64) float64 {
	if len(explicit) > 0 {
		return math.Abs(explicit[0])
	}
	v := f.resolver.VarianceFor(personality.KindToleranceWidth)
	return v * math.Max(1, math.Max(math.Abs(l), math.Abs(r)))
}

// driftSigma sizes standalone drift noise relative to the current value,
// floored at 1 so zero drifts too.
func (f *Framework) driftSigma(current float64) float64 {
	v := f.resolver.VarianceFor(personality.KindToleranceWidth)
	return v * math.Max(1, math.Abs(current))
}

// gateVerdict passes a comparison verdict through the outcome gate: with
// probability flipFraction*(1-gate) the verdict inverts, so the final
// answer is never a deterministic function of the fuzzed comparison.
func (f *Framework) gateVerdict(within bool) bool {
	q := flipFraction * (1 - f.resolver.ProbabilityFor(personality.KindConditionalGate))
	if f.gate(q) {
		return !within
	}
	return within
}

// outcome records the final comparison verdict.
func (f *Framework) outcome(verdict bool) bool {
	f.recorder.RecordOutcome(personality.KindToleranceWidth, verdict)
	return verdict
}

func patternLabel(p *Pattern) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}

// ===== Primitives =====
//
// The building blocks patterns chain. The composed paths go through
// these; direct paths reach the same collaborators without them.

func (f *Framework) convert(v any) (float64, bool) {
	return chance.ToNumber(v)
}

func (f *Framework) noise(scale float64) float64 {
	return f.source.Noise(scale)
}

func (f *Framework) gate(p float64) bool {
	return f.source.Gate(p)
}

func (f *Framework) blend() float64 {
	return clamp01(blendCenter + f.source.Noise(blendSigma))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
