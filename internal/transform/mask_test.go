package transform

import (
	"strings"
	"testing"
)

func TestMaskLine_LiteralsAndComments(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		masked string
	}{
		{
			name:   "double quoted string",
			input:  `x := "~sometimes" + y`,
			masked: `x := ` + strings.Repeat(" ", 12) + ` + y`,
		},
		{
			name:   "escaped quote stays inside",
			input:  `s := "a\"~b" + z`,
			masked: `s := ` + strings.Repeat(" ", 7) + ` + z`,
		},
		{
			name:   "rune literal",
			input:  `c := '~'`,
			masked: `c := ` + strings.Repeat(" ", 3),
		},
		{
			name:   "line comment",
			input:  "work() // ~maybe later",
			masked: "work() " + strings.Repeat(" ", 15),
		},
		{
			name:   "block comment on one line",
			input:  "a /* ~ish */ b",
			masked: "a " + strings.Repeat(" ", 10) + " b",
		},
		{
			name:   "marker outside literal survives",
			input:  `~sometimes len("{") > 0 {`,
			masked: `~sometimes len(   ) > 0 {`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, st := maskLine(tt.input, scanState{})
			if got != tt.masked {
				t.Errorf("maskLine() = %q, want %q", got, tt.masked)
			}
			if st.inRaw || st.inComment {
				t.Errorf("maskLine() left open state %+v", st)
			}
			if len(got) != len(tt.input) {
				t.Errorf("maskLine() changed length: %d != %d", len(got), len(tt.input))
			}
		})
	}
}

func TestMaskLine_StateAcrossLines(t *testing.T) {
	lines := []string{
		"doc := `raw start",
		"~sometimes not a marker",
		"raw end` + tail",
		"/* comment opens",
		"~maybe still comment",
		"closes */ after()",
	}

	var st scanState
	var masked []string
	for _, ln := range lines {
		m, next := maskLine(ln, st)
		masked = append(masked, m)
		st = next
	}

	if strings.Contains(masked[1], "~") {
		t.Errorf("raw string interior not masked: %q", masked[1])
	}
	if !strings.Contains(masked[2], "+ tail") {
		t.Errorf("text after raw close should survive: %q", masked[2])
	}
	if strings.Contains(masked[4], "~") {
		t.Errorf("block comment interior not masked: %q", masked[4])
	}
	if !strings.Contains(masked[5], "after()") {
		t.Errorf("text after comment close should survive: %q", masked[5])
	}
	if st.inRaw || st.inComment {
		t.Errorf("final state should be closed, got %+v", st)
	}
}

func TestMaskLine_UnterminatedString(t *testing.T) {
	got, st := maskLine(`s := "never closed ~ish`, scanState{})
	if strings.Contains(got, "~") {
		t.Errorf("unterminated literal should mask the rest: %q", got)
	}
	if st.inRaw || st.inComment {
		t.Errorf("plain string does not span lines, got %+v", st)
	}
}
