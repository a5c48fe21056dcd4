package transform

import (
	"regexp"
	"strings"
)

// MarkerKind labels a classified fuzzy construct.
type MarkerKind string

const (
	KindSometimesWhile  MarkerKind = "sometimes_while"
	KindMaybeFor        MarkerKind = "maybe_for"
	KindKindaRepeat     MarkerKind = "kinda_repeat"
	KindEventuallyUntil MarkerKind = "eventually_until"
	KindConditional     MarkerKind = "conditional"
	KindKindaDecl       MarkerKind = "kinda_decl"
	KindIshCompare      MarkerKind = "ish_compare"
	KindIshAssign       MarkerKind = "ish_assign"
	KindIshValue        MarkerKind = "ish_value"
)

// Match is one detected marker: where it was, what it was classified
// as, and what it rewrote to.
type Match struct {
	Kind    MarkerKind
	Tier    string
	Line    int
	Col     int
	Text    string
	Rewrite string
}

// Structural rules match whole marker statements. They are tried in
// order: loop constructs first (structurally distinguishable by their
// trailing block syntax), then conditional gates, then the fuzzy
// declaration form. Inline tolerance markers are handled afterwards,
// per occurrence. All matching runs on the masked line; capture indices
// slice the original line, so string and comment contents survive
// untouched.
var (
	reSometimesWhile = regexp.MustCompile(`^(\s*)~sometimes_while\s+(.+?)\s*(\{)\s*$`)
	reEventually     = regexp.MustCompile(`^(\s*)~eventually_until\s+(.+?)\s*(\{)\s*$`)
	reKindaRepeat    = regexp.MustCompile(`^(\s*)~kinda_repeat\s*\(\s*(.+?)\s*\)\s*(\{)\s*$`)
	reMaybeFor       = regexp.MustCompile(`^(\s*)~maybe_for\s+(.+?)\s*(\{)\s*$`)
	reConditional    = regexp.MustCompile(`^(\s*)~(sometimes|maybe|probably|rarely)(?:\s+(.+?))?\s*(\{)\s*$`)
	reKindaDecl      = regexp.MustCompile(`^(\s*)~kinda\s+([A-Za-z_][A-Za-z0-9_]*)\s*(:?=)\s*(.+?)\s*$`)

	// reSigil finds any marker-shaped token for the unknown-marker check.
	reSigil = regexp.MustCompile(`~[A-Za-z_][A-Za-z0-9_]*`)

	// knownMarkerWords is the fixed marker vocabulary. A sigil outside it
	// is a syntax error rather than a silently ignored token.
	knownMarkerWords = map[string]bool{
		"sometimes_while":  true,
		"maybe_for":        true,
		"kinda_repeat":     true,
		"eventually_until": true,
		"sometimes":        true,
		"maybe":            true,
		"probably":         true,
		"rarely":           true,
		"kinda":            true,
		"ish":              true,
	}

	// tierFuncs maps conditional marker words to runtime gate calls.
	tierFuncs = map[string]string{
		"sometimes": "fuzzy.Sometimes",
		"maybe":     "fuzzy.Maybe",
		"probably":  "fuzzy.Probably",
		"rarely":    "fuzzy.Rarely",
	}
)

const ishMarker = "~ish"

// ishRole is the disambiguated role of one ~ish occurrence.
type ishRole int

const (
	roleValue ishRole = iota
	roleAssign
	roleCompare
)

// reBareAssign recognizes the bare-variable assignment statement shape:
// the line is nothing but an identifier, the marker, and its operand.
var reBareAssign = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_]*)\s*~ish\s`)

// classifyIsh decides the role of the ~ish occurrence at idx using the
// conservative cue set: no left operand means value role; a statement
// that is nothing but a bare identifier, the marker, and a trailing
// expression means assignment; everything else (conditional context,
// operators, call or literal nesting) reads as a comparison.
func classifyIsh(masked string, idx int) ishRole {
	if !hasLeftOperand(masked, idx) {
		return roleValue
	}
	if reBareAssign.MatchString(masked) && strings.Index(masked, ishMarker) == idx {
		return roleAssign
	}
	return roleCompare
}

// hasLeftOperand reports whether the marker at idx has an expression to
// its left. Prefix positions (after assignment, an opening delimiter, a
// separator, or a return/case keyword) have none and read as value role.
func hasLeftOperand(masked string, idx int) bool {
	i := idx - 1
	for i >= 0 && (masked[i] == ' ' || masked[i] == '\t') {
		i--
	}
	if i < 0 {
		return false
	}
	switch masked[i] {
	case '=', '(', ',', '{', '[', ';', ':':
		return false
	}
	// A keyword immediately before the marker is not an operand.
	wordEnd := i + 1
	for i >= 0 && isIdentByte(masked[i]) {
		i--
	}
	switch masked[i+1 : wordEnd] {
	case "return", "case":
		return false
	}
	return true
}

// spanForward finds the operand starting at or after from: the tightest
// primary expression, consuming balanced parens and brackets, stopping
// at top-level separators, operators, spaces, or a block opening.
func spanForward(masked string, from int) (start, end int, ok bool) {
	i := from
	for i < len(masked) && (masked[i] == ' ' || masked[i] == '\t') {
		i++
	}
	if i >= len(masked) {
		return 0, 0, false
	}
	start = i
	// A leading sign belongs to the operand.
	if masked[i] == '-' || masked[i] == '+' {
		i++
	}
	depth := 0
	for i < len(masked) {
		c := masked[i]
		if depth == 0 {
			switch c {
			case ' ', '\t', ',', ')', ']', '}', ';', '{',
				'<', '>', '!', '&', '|', '=',
				'+', '-', '*', '/', '%':
				if i == start {
					return 0, 0, false
				}
				return start, i, true
			}
		}
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		i++
	}
	if i == start {
		return 0, 0, false
	}
	return start, i, true
}

// spanBackward finds the operand ending just before to: the tightest
// primary expression scanned right to left, consuming balanced call and
// index suffixes.
func spanBackward(masked string, to int) (start, end int, ok bool) {
	i := to - 1
	for i >= 0 && (masked[i] == ' ' || masked[i] == '\t') {
		i--
	}
	if i < 0 {
		return 0, 0, false
	}
	end = i + 1
	depth := 0
	for i >= 0 {
		c := masked[i]
		if depth == 0 {
			switch c {
			case ' ', '\t', ',', '(', '[', '{', ';', ':',
				'<', '>', '!', '&', '|', '=',
				'+', '-', '*', '/', '%':
				start = i + 1
				if start == end {
					return 0, 0, false
				}
				return start, end, true
			}
		}
		switch c {
		case ')', ']':
			depth++
		case '(', '[':
			depth--
		}
		i--
	}
	if end == 0 {
		return 0, 0, false
	}
	return 0, end, true
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// findIshMarker returns the index of the first ~ish occurrence on the
// masked line that is a whole marker word, or -1. A longer sigil such
// as ~ishmael is left for the unknown-marker check.
func findIshMarker(masked string) int {
	from := 0
	for {
		i := indexFrom(masked, from, ishMarker)
		if i < 0 {
			return -1
		}
		end := i + len(ishMarker)
		if end >= len(masked) || !isIdentByte(masked[end]) {
			return i
		}
		from = end
	}
}
