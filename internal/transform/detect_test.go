package transform

import "testing"

func TestClassifyIsh_Roles(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ishRole
	}{
		{"after short declare", `y := ~ish 5`, roleValue},
		{"after call open", `use(~ish 3, 7)`, roleValue},
		{"after return", `return ~ish base`, roleValue},
		{"after comma", `vals = append(vals, ~ish n)`, roleValue},
		{"bare identifier statement", `x ~ish 250`, roleAssign},
		{"bare with expression rhs", `total ~ish limit * 2`, roleAssign},
		{"inside if header", `if total ~ish 100 {`, roleCompare},
		{"inside for header", `for x ~ish 100 {`, roleCompare},
		{"rhs of declare with lhs operand", `ok := a.b ~ish f(1, 2)`, roleCompare},
		{"chained with logic", `done := n ~ish 10 && ready`, roleCompare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := findIshMarker(tt.line)
			if idx < 0 {
				t.Fatalf("findIshMarker(%q) found nothing", tt.line)
			}
			if got := classifyIsh(tt.line, idx); got != tt.want {
				t.Errorf("classifyIsh(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestFindIshMarker_WholeWordOnly(t *testing.T) {
	if got := findIshMarker(`~ishmael says hello`); got != -1 {
		t.Errorf("longer sigil should not match as ~ish, got index %d", got)
	}
	if got := findIshMarker(`a ~ish b`); got != 2 {
		t.Errorf("findIshMarker = %d, want 2", got)
	}
}

func TestSpanForward_Operands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"number", `if total ~ish 100 {`, `100`},
		{"stops at comma", `use(~ish 3, 7)`, `3`},
		{"call with args", `y := ~ish f(a, b) + 1`, `f(a, b)`},
		{"signed float", `return ~ish -2.5`, `-2.5`},
		{"indexed", `x := ~ish arr[i+1]`, `arr[i+1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := findIshMarker(tt.line)
			s, e, ok := spanForward(tt.line, idx+len(ishMarker))
			if !ok {
				t.Fatalf("spanForward(%q) failed", tt.line)
			}
			if got := tt.line[s:e]; got != tt.want {
				t.Errorf("spanForward(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSpanBackward_Operands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"identifier", `if total ~ish 100 {`, `total`},
		{"call suffix", `ok := f(1, 2) ~ish x`, `f(1, 2)`},
		{"index suffix", `if m[k] ~ish 3 {`, `m[k]`},
		{"selector chain", `if a.b.c ~ish d {`, `a.b.c`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := findIshMarker(tt.line)
			s, e, ok := spanBackward(tt.line, idx)
			if !ok {
				t.Fatalf("spanBackward(%q) failed", tt.line)
			}
			if got := tt.line[s:e]; got != tt.want {
				t.Errorf("spanBackward(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSpanForward_MissingOperand(t *testing.T) {
	line := `x := ~ish`
	idx := findIshMarker(line)
	if _, _, ok := spanForward(line, idx+len(ishMarker)); ok {
		t.Error("spanForward should fail with nothing after the marker")
	}
}
