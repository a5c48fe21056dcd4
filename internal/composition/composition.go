// Package composition builds the higher-level tolerance behaviors (fuzzy
// comparison, fuzzy assignment drift) out of a small set of primitive
// operations: numeric conversion, noise draws, and probability gates.
//
// Every composed behavior has a direct counterpart implementing the same
// algorithm without the pattern machinery. Composed evaluation that fails
// internally falls back to the direct path and records the fallback, so a
// composed construct is never less safe than its direct equivalent.
package composition

import (
	"fmt"
	"sort"
	"sync"
)

// Mode says which evaluation entry point a pattern serves.
type Mode string

const (
	// ModeComparison patterns answer tolerance comparisons.
	ModeComparison Mode = "comparison"

	// ModeAssignment patterns produce drifted or blended values.
	ModeAssignment Mode = "assignment"
)

// IsValid reports whether m is part of the fixed mode enumeration.
func (m Mode) IsValid() bool {
	return m == ModeComparison || m == ModeAssignment
}

// Primitive names one of the building-block operations a pattern chains.
type Primitive string

const (
	PrimConvert Primitive = "convert"
	PrimNoise   Primitive = "noise"
	PrimBlend   Primitive = "blend"
	PrimGate    Primitive = "gate"
)

// Pattern is a named, cached composition of primitives. Instances are
// created only through a Registry, which guarantees one instance per
// name+mode pair for its lifetime.
type Pattern struct {
	Name  string
	Mode  Mode
	Steps []Primitive
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%s[%s]", p.Name, p.Mode)
}

// stepsFor returns the primitive chain a mode composes.
func stepsFor(mode Mode) []Primitive {
	switch mode {
	case ModeComparison:
		// Convert both operands, fuzz tolerance and difference with
		// independent noise, then gate the comparison outcome.
		return []Primitive{PrimConvert, PrimNoise, PrimNoise, PrimGate}
	case ModeAssignment:
		// Gate the blend branch, fuzz the blend factor, otherwise noise.
		return []Primitive{PrimGate, PrimBlend, PrimNoise}
	default:
		return nil
	}
}

// Registry caches pattern instances per name+mode pair. It is
// thread-safe and supports registration at runtime.
type Registry struct {
	mu       sync.RWMutex
	patterns map[patternKey]*Pattern
}

type patternKey struct {
	name string
	mode Mode
}

// NewRegistry creates a new empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[patternKey]*Pattern)}
}

// Register returns the pattern for name+mode, creating it on first use.
// Repeated calls with the same pair return the same instance.
func (r *Registry) Register(name string, mode Mode) (*Pattern, error) {
	if name == "" {
		return nil, ErrEmptyPatternName
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPatternMode, mode)
	}

	key := patternKey{name: name, mode: mode}

	r.mu.RLock()
	p := r.patterns[key]
	r.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.patterns[key]; p != nil {
		return p, nil
	}
	p = &Pattern{Name: name, Mode: mode, Steps: stepsFor(mode)}
	r.patterns[key] = p
	return p, nil
}

// MustRegister registers a pattern and panics on error.
// Use this for static pattern registration at startup.
func (r *Registry) MustRegister(name string, mode Mode) *Pattern {
	p, err := r.Register(name, mode)
	if err != nil {
		panic(fmt.Sprintf("failed to register pattern %s: %v", name, err))
	}
	return p
}

// Get returns the cached pattern for name+mode, or nil.
func (r *Registry) Get(name string, mode Mode) *Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patterns[patternKey{name: name, mode: mode}]
}

// Has reports whether a pattern is cached for name+mode.
func (r *Registry) Has(name string, mode Mode) bool {
	return r.Get(name, mode) != nil
}

// List returns all cached patterns sorted by name, then mode.
func (r *Registry) List() []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Mode < out[j].Mode
	})
	return out
}

// Count returns how many patterns are cached.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}
