// Package personality holds the mood profiles and chaos scaling that govern
// every probabilistic decision the runtime makes.
//
// A mood profile is a table mapping each construct kind to a base
// probability or variance magnitude. The chaos level (1-10) scales those
// values on top: probabilities are pulled toward a coin flip as chaos
// rises and sharpened as it falls, variances grow linearly with chaos.
// The Resolver exposes the currently active (mood, chaos) pair as pure
// lookups; randomness is injected by callers, never here.
package personality

import "fmt"

// Mood identifies one of the built-in personality profiles.
type Mood string

const (
	// MoodReliable keeps gates near certain and noise small.
	MoodReliable Mood = "reliable"

	// MoodCautious hedges: high continuation odds, modest noise.
	MoodCautious Mood = "cautious"

	// MoodPlayful is the default profile with the canonical tier bases.
	MoodPlayful Mood = "playful"

	// MoodChaotic drags every gate toward a coin flip and widens noise.
	MoodChaotic Mood = "chaotic"
)

// AllMoods returns the fixed mood enumeration in display order.
func AllMoods() []Mood {
	return []Mood{MoodReliable, MoodCautious, MoodPlayful, MoodChaotic}
}

// IsValid reports whether m names a known mood.
func (m Mood) IsValid() bool {
	switch m {
	case MoodReliable, MoodCautious, MoodPlayful, MoodChaotic:
		return true
	default:
		return false
	}
}

// ConstructKind is the category label used to look up mood-resolved
// parameters for a fuzzy construct.
type ConstructKind string

const (
	KindConditionalGate     ConstructKind = "conditional_gate"
	KindLoopContinuation    ConstructKind = "loop_continuation"
	KindLoopPerItem         ConstructKind = "loop_per_item"
	KindRepeatVariance      ConstructKind = "loop_repeat_variance"
	KindConfidenceThreshold ConstructKind = "loop_confidence_threshold"
	KindToleranceWidth      ConstructKind = "tolerance_width"
)

// AllKinds returns every construct kind. Profile completeness is checked
// against this list.
func AllKinds() []ConstructKind {
	return []ConstructKind{
		KindConditionalGate,
		KindLoopContinuation,
		KindLoopPerItem,
		KindRepeatVariance,
		KindConfidenceThreshold,
		KindToleranceWidth,
	}
}

// Tier selects one of the four fixed conditional-gate probability tiers.
// Tier offsets are applied to the mood's conditional-gate base, so a mood
// shifts all four tiers together.
type Tier string

const (
	TierSometimes Tier = "sometimes"
	TierMaybe     Tier = "maybe"
	TierProbably  Tier = "probably"
	TierRarely    Tier = "rarely"
)

// tierOffsets positions each tier relative to the sometimes (50%) base.
// With the playful base of 0.50 the effective tiers are the canonical
// 0.50 / 0.60 / 0.70 / 0.15.
var tierOffsets = map[Tier]float64{
	TierSometimes: 0.0,
	TierMaybe:     0.10,
	TierProbably:  0.20,
	TierRarely:    -0.35,
}

// profiles is the base table: mood × construct kind → value in [0,1].
// Probability-like kinds (conditional_gate, loop_continuation,
// loop_per_item, loop_confidence_threshold) read as probabilities;
// variance-like kinds (loop_repeat_variance, tolerance_width) read as
// magnitudes scaled by chaos.
var profiles = map[Mood]map[ConstructKind]float64{
	MoodReliable: {
		KindConditionalGate:     0.80,
		KindLoopContinuation:    0.90,
		KindLoopPerItem:         0.95,
		KindRepeatVariance:      0.10,
		KindConfidenceThreshold: 0.95,
		KindToleranceWidth:      0.05,
	},
	MoodCautious: {
		KindConditionalGate:     0.65,
		KindLoopContinuation:    0.75,
		KindLoopPerItem:         0.85,
		KindRepeatVariance:      0.20,
		KindConfidenceThreshold: 0.90,
		KindToleranceWidth:      0.10,
	},
	MoodPlayful: {
		KindConditionalGate:     0.50,
		KindLoopContinuation:    0.60,
		KindLoopPerItem:         0.70,
		KindRepeatVariance:      0.30,
		KindConfidenceThreshold: 0.80,
		KindToleranceWidth:      0.20,
	},
	MoodChaotic: {
		KindConditionalGate:     0.35,
		KindLoopContinuation:    0.45,
		KindLoopPerItem:         0.50,
		KindRepeatVariance:      0.40,
		KindConfidenceThreshold: 0.70,
		KindToleranceWidth:      0.35,
	},
}

// BaseValue returns the unscaled profile entry for a mood and kind.
// It panics on an unknown mood or kind: profile completeness is a
// package invariant verified by tests, not a runtime condition.
func BaseValue(m Mood, kind ConstructKind) float64 {
	table, ok := profiles[m]
	if !ok {
		panic(fmt.Sprintf("personality: no profile for mood %q", m))
	}
	v, ok := table[kind]
	if !ok {
		panic(fmt.Sprintf("personality: mood %q has no entry for kind %q", m, kind))
	}
	return v
}

// Chaos level bounds. Level 5 is neutral: probabilities and variances
// pass through unchanged.
const (
	MinChaos     = 1
	MaxChaos     = 10
	DefaultChaos = 5
)

// DefaultMood is the profile active before any explicit SetContext.
const DefaultMood = MoodPlayful

// scaleProbability applies the chaos level to a base probability.
// Below-neutral chaos sharpens decisions, above-neutral chaos drags them
// toward 0.5. The result is always in [0,1].
func scaleProbability(p float64, chaos int) float64 {
	factor := 1.5 - 0.1*float64(chaos)
	return clamp01(0.5 + (p-0.5)*factor)
}

// scaleVariance applies the chaos level to a variance magnitude.
// The result is never negative.
func scaleVariance(v float64, chaos int) float64 {
	scaled := v * float64(chaos) / float64(DefaultChaos)
	if scaled < 0 {
		return 0
	}
	return scaled
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
