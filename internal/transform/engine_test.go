package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func transformString(t *testing.T, name, input string) (*Result, string) {
	t.Helper()
	res, err := NewEngine().Transform(name, []byte(input))
	if err != nil {
		t.Fatalf("Transform(%s) error = %v", name, err)
	}
	return res, string(res.Output)
}

func TestTransform_TierConditionals(t *testing.T) {
	input := `package demo

func tiers(q []int) {
	~sometimes {
		a()
	}
	~maybe len(q) > 0 { // drain
		b()
	}
	~probably ready() {
		c()
	}
	~rarely {
		d()
	}
}
`
	want := `package demo

import "sorta/fuzzy"

func tiers(q []int) {
	if fuzzy.Sometimes() {
		a()
	}
	if fuzzy.Maybe(len(q) > 0) { // drain
		b()
	}
	if fuzzy.Probably(ready()) {
		c()
	}
	if fuzzy.Rarely() {
		d()
	}
}
`
	res, got := transformString(t, "tiers.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed {
		t.Error("Changed = false, want true")
	}
	if len(res.Matches) != 4 {
		t.Fatalf("got %d matches, want 4", len(res.Matches))
	}
	wantTiers := []string{"sometimes", "maybe", "probably", "rarely"}
	for i, m := range res.Matches {
		if m.Kind != KindConditional || m.Tier != wantTiers[i] {
			t.Errorf("match %d = %s/%s, want conditional/%s", i, m.Kind, m.Tier, wantTiers[i])
		}
	}
}

func TestTransform_LoopConstructs(t *testing.T) {
	input := `package demo

import (
	"fmt"
)

func loops(n int) {
	~sometimes_while retries < 3 {
		retry()
	}
	~kinda_repeat(n) {
		fmt.Println("hi")
	}
	~eventually_until stable() {
		poke()
	}
}
`
	want := `package demo

import (
	"fmt"
	"sorta/fuzzy"
)

func loops(n int) {
	for _fz_w0 := 0; fuzzy.SometimesWhile(_fz_w0, retries < 3); _fz_w0++ {
		retry()
	}
	for _fz_r0, _fz_n0 := 0, fuzzy.KindaRepeat(n); _fz_r0 < _fz_n0; _fz_r0++ {
		fmt.Println("hi")
	}
	for _fz_e0 := fuzzy.EventuallyBegin(); fuzzy.EventuallyUntil(_fz_e0, stable()); {
		poke()
	}
}
`
	res, got := transformString(t, "loops.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	kinds := []MarkerKind{KindSometimesWhile, KindKindaRepeat, KindEventuallyUntil}
	if len(res.Matches) != len(kinds) {
		t.Fatalf("got %d matches, want %d", len(res.Matches), len(kinds))
	}
	for i, m := range res.Matches {
		if m.Kind != kinds[i] {
			t.Errorf("match %d kind = %s, want %s", i, m.Kind, kinds[i])
		}
	}
}

func TestTransform_PerItemIteration(t *testing.T) {
	input := `package demo

func scan(items []int) {
	~maybe_for i := range items {
		visit(i)
	}
}
`
	want := `package demo

import "sorta/fuzzy"

func scan(items []int) {
	for i := range items {
		if fuzzy.MaybeFor() {
			visit(i)
		}
	}
}
`
	_, got := transformString(t, "scan.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_NestedPerItemIteration(t *testing.T) {
	input := `package demo

func pairs(as, bs []int) {
	~maybe_for a := range as {
		~maybe_for b := range bs {
			use(a, b)
		}
	}
}
`
	want := `package demo

import "sorta/fuzzy"

func pairs(as, bs []int) {
	for a := range as {
		if fuzzy.MaybeFor() {
			for b := range bs {
				if fuzzy.MaybeFor() {
					use(a, b)
				}
			}
		}
	}
}
`
	_, got := transformString(t, "pairs.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_InlineTolerance(t *testing.T) {
	input := `package demo

func ish(total, x, n int, vals []int) {
	if total ~ish 100 {
		hit()
	}
	x ~ish 250
	y := ~ish 5
	vals = append(vals, ~ish n)
	_ = y
	~sometimes total ~ish 100 {
		mark()
	}
}
`
	want := `package demo

import "sorta/fuzzy"

func ish(total, x, n int, vals []int) {
	if fuzzy.IshCompare(total, 100) {
		hit()
	}
	x = fuzzy.IshAssign(x, 250)
	y := fuzzy.IshValue(5)
	vals = append(vals, fuzzy.IshValue(n))
	_ = y
	if fuzzy.Sometimes(fuzzy.IshCompare(total, 100)) {
		mark()
	}
}
`
	res, got := transformString(t, "ish.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	var byKind []MarkerKind
	for _, m := range res.Matches {
		byKind = append(byKind, m.Kind)
	}
	wantKinds := []MarkerKind{
		KindIshCompare, KindIshAssign, KindIshValue, KindIshValue,
		KindConditional, KindIshCompare,
	}
	if diff := cmp.Diff(wantKinds, byKind); diff != "" {
		t.Errorf("match kinds (-want +got):\n%s", diff)
	}
}

func TestTransform_FuzzyDeclarations(t *testing.T) {
	input := `package demo

func decl(base int) {
	~kinda timeout := 30
	~kinda level = base * 2
	use(timeout, level)
}
`
	want := `package demo

import "sorta/fuzzy"

func decl(base int) {
	timeout := fuzzy.Kinda(30)
	level = fuzzy.Kinda(base * 2)
	use(timeout, level)
}
`
	_, got := transformString(t, "decl.sorta", input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_NoMarkersPassThrough(t *testing.T) {
	input := `package demo

func plain() int {
	return 42
}
`
	res, got := transformString(t, "plain.go", input)
	if res.Changed {
		t.Error("Changed = true for marker-free file")
	}
	if got != input {
		t.Errorf("output differs from input:\n%s", got)
	}
	if len(res.Matches) != 0 {
		t.Errorf("got %d matches, want 0", len(res.Matches))
	}
}

func TestTransform_MarkersInLiteralsUntouched(t *testing.T) {
	input := `package demo

// a ~maybe note in prose
var s = "~sometimes kept verbatim"
var r = ` + "`" + `raw ~ish text` + "`" + `
`
	res, got := transformString(t, "lit.sorta", input)
	if res.Changed {
		t.Error("Changed = true, markers are all inside literals")
	}
	if got != input {
		t.Errorf("output differs from input:\n%s", got)
	}
}

func TestTransform_Idempotent(t *testing.T) {
	input := `package demo

func again() {
	~rarely {
		blip()
	}
}
`
	_, once := transformString(t, "again.sorta", input)
	res, twice := transformString(t, "again.go", once)
	if res.Changed {
		t.Error("second pass reports Changed = true")
	}
	if once != twice {
		t.Errorf("second pass altered output:\n%s", cmp.Diff(once, twice))
	}
}

func TestTransform_UniqueLoopTemporaries(t *testing.T) {
	input := `package demo

func twice() {
	~sometimes_while a() {
		x()
	}
	~sometimes_while b() {
		y()
	}
}
`
	_, got := transformString(t, "twice.sorta", input)
	if !strings.Contains(got, "_fz_w0") || !strings.Contains(got, "_fz_w1") {
		t.Errorf("loop temporaries not unique:\n%s", got)
	}
}

func TestTransform_UnknownMarker(t *testing.T) {
	input := `package demo

func bad() {
	~flaky {
	}
}
`
	_, err := NewEngine().Transform("bad.sorta", []byte(input))
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if serr.File != "bad.sorta" || serr.Line != 4 {
		t.Errorf("error position = %s:%d, want bad.sorta:4", serr.File, serr.Line)
	}
	if !strings.Contains(serr.Msg, "unknown marker") {
		t.Errorf("error message %q should name the unknown marker", serr.Msg)
	}
}

func TestTransform_MalformedMarker(t *testing.T) {
	input := `package demo

func bad() {
	~sometimes
}
`
	_, err := NewEngine().Transform("bad.sorta", []byte(input))
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if !strings.Contains(serr.Msg, "malformed ~sometimes") {
		t.Errorf("error message = %q", serr.Msg)
	}
}

func TestTransform_UnclosedIterationBlock(t *testing.T) {
	input := `package demo

func bad(items []int) {
	~maybe_for i := range items {
		visit(i)
`
	_, err := NewEngine().Transform("bad.sorta", []byte(input))
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if serr.Line != 4 {
		t.Errorf("error line = %d, want 4 (the opening marker)", serr.Line)
	}
	if !strings.Contains(serr.Msg, "unclosed") {
		t.Errorf("error message = %q", serr.Msg)
	}
}

func TestTransform_MissingToleranceOperand(t *testing.T) {
	input := `package demo

func bad() {
	x := ~ish
}
`
	_, err := NewEngine().Transform("bad.sorta", []byte(input))
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if !strings.Contains(serr.Msg, "operand") {
		t.Errorf("error message = %q", serr.Msg)
	}
}

func TestTransform_SourceMap(t *testing.T) {
	input := `package demo

func scan(items []int) {
	~maybe_for i := range items {
		visit(i)
	}
}
`
	res, _ := transformString(t, "scan.sorta", input)

	checks := []struct {
		output, input int
	}{
		{1, 1},  // package clause
		{2, 0},  // injected blank
		{3, 0},  // injected import
		{4, 2},  // original blank
		{6, 4},  // lowered for header
		{7, 4},  // synthetic gate guard
		{8, 5},  // body line
		{9, 6},  // synthetic guard close
		{10, 6}, // original closing brace
		{11, 7}, // function close
	}
	for _, c := range checks {
		if got := res.Map.Input(c.output); got != c.input {
			t.Errorf("Map.Input(%d) = %d, want %d", c.output, got, c.input)
		}
	}
	if res.Map.Input(0) != 0 || res.Map.Input(res.Map.Len()+1) != 0 {
		t.Error("out of range lines should map to 0")
	}
}
