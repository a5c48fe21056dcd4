// Package telemetry records what the fuzzy constructs actually did:
// per-kind draw/pass counters and the chaos events (safety caps, timeouts,
// fallbacks, conversion failures) that the error-handling contract turns
// into recorded warnings instead of program failures.
//
// The in-memory recorder is cheap enough to leave always-on; persistence
// (JSON snapshot, sqlite chronicle) is opt-in through the CLI.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sorta/internal/personality"
)

// EventType labels a recorded chaos event.
type EventType string

const (
	// EventCapExceeded marks a continuation loop stopped by its safety cap.
	EventCapExceeded EventType = "cap_exceeded"

	// EventConfidenceTimeout marks an eventually-loop that hit its
	// max-evaluation cap before reaching confidence.
	EventConfidenceTimeout EventType = "confidence_timeout"

	// EventConfidenceDegraded marks a confidence computation that fell back
	// to a plain proportion check on a degenerate buffer.
	EventConfidenceDegraded EventType = "confidence_degraded"

	// EventCompositionFallback marks a composed construct that delegated to
	// its direct implementation after an internal failure.
	EventCompositionFallback EventType = "composition_fallback"

	// EventConversionFailure marks a tolerance operand that could not be
	// read as a number and was resolved through the biased-false path.
	EventConversionFailure EventType = "conversion_failure"
)

// Event is one recorded chaos event.
type Event struct {
	ID     string                    `json:"id"`
	RunID  string                    `json:"run_id"`
	At     time.Time                 `json:"at"`
	Type   EventType                 `json:"type"`
	Kind   personality.ConstructKind `json:"kind"`
	Detail string                    `json:"detail,omitempty"`
}

// OutcomeCounts aggregates gate results for one construct kind.
type OutcomeCounts struct {
	Draws  int64 `json:"draws"`
	Passes int64 `json:"passes"`
}

// PassRate returns passes/draws, or zero before any draw.
func (o OutcomeCounts) PassRate() float64 {
	if o.Draws == 0 {
		return 0
	}
	return float64(o.Passes) / float64(o.Draws)
}

// maxRecentEvents bounds the in-memory event list; older entries are
// evicted first so a long chaotic run stays constant-memory.
const maxRecentEvents = 256

// Recorder accumulates outcome counters and chaos events for one run.
type Recorder struct {
	mu       sync.Mutex
	runID    string
	started  time.Time
	outcomes map[personality.ConstructKind]*OutcomeCounts
	byType   map[EventType]int64
	recent   []Event
	log      *zap.Logger
}

// NewRecorder returns an empty recorder tagged with a fresh run id.
func NewRecorder() *Recorder {
	return &Recorder{
		runID:    uuid.NewString(),
		started:  time.Now(),
		outcomes: make(map[personality.ConstructKind]*OutcomeCounts),
		byType:   make(map[EventType]int64),
		log:      zap.NewNop(),
	}
}

// SetLogger attaches a logger for chaos-event diagnostics.
func (r *Recorder) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = log
}

// RunID returns the run identifier stamped on every event.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// RecordOutcome counts one gate draw for kind.
func (r *Recorder) RecordOutcome(kind personality.ConstructKind, passed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outcomes[kind]
	if o == nil {
		o = &OutcomeCounts{}
		r.outcomes[kind] = o
	}
	o.Draws++
	if passed {
		o.Passes++
	}
}

// RecordEvent appends a chaos event, evicting the oldest entry past the
// in-memory bound.
func (r *Recorder) RecordEvent(t EventType, kind personality.ConstructKind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := Event{
		ID:     uuid.NewString(),
		RunID:  r.runID,
		At:     time.Now(),
		Type:   t,
		Kind:   kind,
		Detail: detail,
	}
	r.byType[t]++
	r.recent = append(r.recent, ev)
	if len(r.recent) > maxRecentEvents {
		r.recent = r.recent[len(r.recent)-maxRecentEvents:]
	}
	r.log.Debug("chaos event",
		zap.String("type", string(t)),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))
}

// Snapshot is a point-in-time copy of the recorder state, suitable for
// JSON persistence and the chronicle store.
type Snapshot struct {
	RunID       string                                      `json:"run_id"`
	StartedAt   time.Time                                   `json:"started_at"`
	SavedAt     time.Time                                   `json:"saved_at"`
	Outcomes    map[personality.ConstructKind]OutcomeCounts `json:"outcomes"`
	EventCounts map[EventType]int64                         `json:"event_counts"`
	Recent      []Event                                     `json:"recent_events,omitempty"`
}

// Snapshot copies the current state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		RunID:       r.runID,
		StartedAt:   r.started,
		SavedAt:     time.Now(),
		Outcomes:    make(map[personality.ConstructKind]OutcomeCounts, len(r.outcomes)),
		EventCounts: make(map[EventType]int64, len(r.byType)),
		Recent:      append([]Event(nil), r.recent...),
	}
	for k, o := range r.outcomes {
		snap.Outcomes[k] = *o
	}
	for t, n := range r.byType {
		snap.EventCounts[t] = n
	}
	return snap
}

// EventCount returns how many events of type t were recorded.
func (r *Recorder) EventCount(t EventType) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byType[t]
}

// Reset clears counters and events while keeping the run id.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = make(map[personality.ConstructKind]*OutcomeCounts)
	r.byType = make(map[EventType]int64)
	r.recent = nil
	r.started = time.Now()
}

// WriteSnapshot persists a JSON snapshot to path, creating directories as
// needed.
func (r *Recorder) WriteSnapshot(path string) error {
	snap := r.Snapshot()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
