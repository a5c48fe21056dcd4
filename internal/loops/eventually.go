package loops

import (
	"fmt"
	"math"

	"sorta/internal/personality"
	"sorta/internal/telemetry"
)

const (
	// wilsonZ is the one-sided 95% normal quantile used for the lower
	// confidence bound.
	wilsonZ = 1.645

	// hopelessStride is the recheck cadence once a full window holds no
	// true samples. Such a window cannot cross any positive threshold,
	// so per-call interval math is wasted until the picture changes; the
	// evaluation cap still counts every call.
	hopelessStride = 10
)

// sampleWindow is a fixed-capacity ring over recent boolean samples with
// an incrementally maintained true count. Capacity is set at creation.
type sampleWindow struct {
	samples []bool
	head    int
	size    int
	trues   int
}

func newSampleWindow(capacity int) sampleWindow {
	return sampleWindow{samples: make([]bool, capacity)}
}

func (w *sampleWindow) add(sample bool) {
	if w.size == len(w.samples) {
		if w.samples[w.head] {
			w.trues--
		}
	} else {
		w.size++
	}
	w.samples[w.head] = sample
	if sample {
		w.trues++
	}
	w.head = (w.head + 1) % len(w.samples)
}

func (w *sampleWindow) full() bool {
	return w.size == len(w.samples)
}

func (w *sampleWindow) proportion() float64 {
	if w.size == 0 {
		return 0
	}
	return float64(w.trues) / float64(w.size)
}

// eventualState is one live confidence-terminated loop instance, sized
// by the runner limits in force when it began. Instances are created by
// EventuallyBegin and dropped from the registry when their loop
// terminates; a loop abandoned by break leaves its (small, bounded)
// state behind until process exit.
type eventualState struct {
	window     sampleWindow
	limits     Limits
	evals      int
	sinceCheck int
}

func newEventualState(l Limits) *eventualState {
	return &eventualState{window: newSampleWindow(l.SampleWindow), limits: l}
}

// wilsonLower computes the one-sided Wilson score lower bound for the
// true-proportion of n samples with the given success count. ok is false
// when the inputs defeat the interval math.
func wilsonLower(trues, n int, z float64) (lower float64, ok bool) {
	if n <= 0 {
		return 0, false
	}
	phat := float64(trues) / float64(n)
	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	center := phat + z2/(2*nf)
	margin := z * math.Sqrt(phat*(1-phat)/nf+z2/(4*nf*nf))
	lower = (center - margin) / denom
	if math.IsNaN(lower) || math.IsInf(lower, 0) {
		return 0, false
	}
	return lower, true
}

// EventuallyBegin registers a fresh confidence loop instance and returns
// its handle.
func (r *Runner) EventuallyBegin() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextHandle++
	h := r.nextHandle
	r.eventual[h] = newEventualState(r.limits)
	return h
}

// EventuallyContinue records one condition sample for the loop behind
// handle and reports whether the loop should run another cycle.
//
// The loop ends either by confidence — the Wilson lower bound on the
// recent true-proportion reaching the resolved threshold — or by the
// evaluation cap, which records a timeout event. A handle not present in
// the registry (stale, or never issued) starts a fresh instance rather
// than failing the loop.
func (r *Runner) EventuallyContinue(handle int64, cond bool) bool {
	r.mu.Lock()
	st := r.eventual[handle]
	if st == nil {
		st = newEventualState(r.limits)
		r.eventual[handle] = st
	}
	r.mu.Unlock()

	st.window.add(cond)
	st.evals++
	st.sinceCheck++

	if st.evals >= st.limits.MaxEvaluations {
		r.recorder.RecordEvent(telemetry.EventConfidenceTimeout, personality.KindConfidenceThreshold,
			fmt.Sprintf("no confident exit after %d evaluations", st.evals))
		r.drop(handle)
		return false
	}
	if st.window.size < st.limits.MinSamples {
		return true
	}
	if st.sinceCheck < r.checkStride(st) {
		return true
	}
	st.sinceCheck = 0

	threshold := r.resolver.ProbabilityFor(personality.KindConfidenceThreshold)
	lower, ok := wilsonLower(st.window.trues, st.window.size, wilsonZ)
	if !ok {
		// The interval math gave nothing usable; a plain proportion
		// check still yields a termination decision.
		r.recorder.RecordEvent(telemetry.EventConfidenceDegraded, personality.KindConfidenceThreshold,
			fmt.Sprintf("proportion fallback at %d samples", st.window.size))
		lower = st.window.proportion()
	}
	if lower >= threshold {
		r.drop(handle)
		return false
	}
	return true
}

// checkStride returns how many evaluations may pass between confidence
// checks for st. Termination correctness never depends on the stride;
// it only defers rechecking while the window cannot possibly cross.
func (r *Runner) checkStride(st *eventualState) int {
	if st.window.full() && st.window.trues == 0 {
		return hopelessStride
	}
	return 1
}

func (r *Runner) drop(handle int64) {
	r.mu.Lock()
	delete(r.eventual, handle)
	r.mu.Unlock()
}

// liveEventually reports the number of registered confidence loop
// instances. Test hook.
func (r *Runner) liveEventually() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.eventual)
}
