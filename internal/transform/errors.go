package transform

import "fmt"

// SyntaxError reports a fuzzy marker the engine recognized as a sigil
// but could not transform: unknown marker word, malformed construct, or
// unbalanced block structure. Transformation of the file stops at the
// first SyntaxError; no partial output is produced.
type SyntaxError struct {
	File string
	Line int
	Col  int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Col)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	if e.Text == "" {
		return fmt.Sprintf("%s: %s", loc, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %q", loc, e.Msg, e.Text)
}

// syntaxErr builds a SyntaxError for a 0-based column index.
func syntaxErr(line, colIdx int, text, msg string) *SyntaxError {
	return &SyntaxError{Line: line, Col: colIdx + 1, Text: text, Msg: msg}
}
