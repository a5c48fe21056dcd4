package transform

// scanState carries the lexical state that survives across lines:
// raw string literals and block comments are the only constructs in the
// dialect that can span line boundaries.
type scanState struct {
	inRaw     bool
	inComment bool
}

// maskLine returns a copy of line where every byte inside a string
// literal, rune literal, or comment is replaced by a space, plus the
// scan state after the line. Byte positions are preserved, so marker
// detection can run on the mask and rewrite the original line at the
// same offsets.
func maskLine(line string, st scanState) (string, scanState) {
	masked := []byte(line)
	i := 0
	n := len(line)

	blank := func(from, to int) {
		for j := from; j < to && j < n; j++ {
			masked[j] = ' '
		}
	}

	for i < n {
		switch {
		case st.inComment:
			end := indexFrom(line, i, "*/")
			if end < 0 {
				blank(i, n)
				return string(masked), st
			}
			blank(i, end+2)
			st.inComment = false
			i = end + 2

		case st.inRaw:
			end := indexByteFrom(line, i, '`')
			if end < 0 {
				blank(i, n)
				return string(masked), st
			}
			blank(i, end+1)
			st.inRaw = false
			i = end + 1

		default:
			c := line[i]
			switch c {
			case '/':
				if i+1 < n && line[i+1] == '/' {
					blank(i, n)
					return string(masked), st
				}
				if i+1 < n && line[i+1] == '*' {
					st.inComment = true
					blank(i, i+2)
					i += 2
					continue
				}
				i++
			case '`':
				st.inRaw = true
				masked[i] = ' '
				i++
			case '"', '\'':
				end := closeQuote(line, i)
				if end < 0 {
					// Unterminated literal; mask the remainder and let
					// the host toolchain report it.
					blank(i, n)
					return string(masked), st
				}
				blank(i, end+1)
				i = end + 1
			default:
				i++
			}
		}
	}
	return string(masked), st
}

// closeQuote returns the index of the closing quote for the literal
// starting at open, honoring backslash escapes, or -1.
func closeQuote(line string, open int) int {
	q := line[open]
	for i := open + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}

func indexFrom(s string, from int, sub string) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func indexByteFrom(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
