package personality

import (
	"fmt"
	"sync"
)

// Context is one effective (mood, chaos) pair.
type Context struct {
	Mood  Mood
	Chaos int
}

// DefaultContext returns the context active before any configuration.
func DefaultContext() Context {
	return Context{Mood: DefaultMood, Chaos: DefaultChaos}
}

// Validate checks the context against the mood enumeration and chaos bounds.
func (c Context) Validate() error {
	if !c.Mood.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownMood, c.Mood)
	}
	if c.Chaos < MinChaos || c.Chaos > MaxChaos {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrChaosRange, c.Chaos, MinChaos, MaxChaos)
	}
	return nil
}

// Resolver owns the active context stack. The bottom entry is the
// process-wide base context; nested regions push an override and pop it on
// exit. All mutation goes through the stack so a propagated failure inside
// With still restores the prior context.
//
// The resolver is safe for concurrent use, though the runtime as a whole
// assumes a single-threaded host program.
type Resolver struct {
	mu    sync.RWMutex
	stack []Context
}

// NewResolver returns a resolver holding only the default base context.
func NewResolver() *Resolver {
	return &Resolver{stack: []Context{DefaultContext()}}
}

// Current returns the active context (top of the stack).
func (r *Resolver) Current() Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stack[len(r.stack)-1]
}

// Depth returns the stack depth, 1 meaning only the base context.
func (r *Resolver) Depth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stack)
}

// SetContext validates and replaces the active context in place.
// It does not change the stack depth.
func (r *Resolver) SetContext(m Mood, chaos int) error {
	c := Context{Mood: m, Chaos: chaos}
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack[len(r.stack)-1] = c
	return nil
}

// Push validates and pushes a scoped override.
func (r *Resolver) Push(m Mood, chaos int) error {
	c := Context{Mood: m, Chaos: chaos}
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = append(r.stack, c)
	return nil
}

// Pop removes the most recent override. The base context cannot be popped.
func (r *Resolver) Pop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 1 {
		return ErrContextUnderflow
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// With runs fn under a scoped override and guarantees the prior context is
// restored afterward, including when fn panics.
func (r *Resolver) With(m Mood, chaos int, fn func()) error {
	if err := r.Push(m, chaos); err != nil {
		return err
	}
	defer func() {
		// The override was pushed above, so the pop cannot underflow.
		_ = r.Pop()
	}()
	fn()
	return nil
}

// ProbabilityFor resolves the chaos-scaled probability for a
// probability-like construct kind under the active context.
func (r *Resolver) ProbabilityFor(kind ConstructKind) float64 {
	c := r.Current()
	return scaleProbability(BaseValue(c.Mood, kind), c.Chaos)
}

// VarianceFor resolves the chaos-scaled variance magnitude for a
// variance-like construct kind under the active context.
func (r *Resolver) VarianceFor(kind ConstructKind) float64 {
	c := r.Current()
	return scaleVariance(BaseValue(c.Mood, kind), c.Chaos)
}

// TierProbability resolves the effective probability for one of the four
// conditional-gate tiers: the mood's conditional-gate base shifted by the
// tier offset, then chaos-scaled.
func (r *Resolver) TierProbability(t Tier) float64 {
	c := r.Current()
	base := clamp01(BaseValue(c.Mood, KindConditionalGate) + tierOffsets[t])
	return scaleProbability(base, c.Chaos)
}
