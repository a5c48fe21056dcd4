package transform

import (
	"fmt"
	"regexp"
	"strings"
)

const fuzzyImportPath = "sorta/fuzzy"

// Engine rewrites fuzzy marker syntax into plain Go that calls the
// runtime facade. It works line by line with a lexical mask, so marker
// text inside strings and comments is never touched, and files without
// markers pass through byte for byte.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Result is one transformed file.
type Result struct {
	Output  []byte
	Matches []Match
	Map     *SourceMap
	Changed bool
}

// SourceMap maps 1-based output line numbers back to input line
// numbers. Synthetic lines (loop guards, inserted braces) map to the
// construct that produced them; injected import lines map to 0.
type SourceMap struct {
	toInput []int
}

// Input returns the input line for an output line, or 0 when the line
// is synthetic or out of range.
func (m *SourceMap) Input(outputLine int) int {
	if m == nil || outputLine < 1 || outputLine > len(m.toInput) {
		return 0
	}
	return m.toInput[outputLine-1]
}

func (m *SourceMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.toInput)
}

// openBlock tracks one per-item iteration construct whose body is being
// wrapped in a gate guard. depth is the brace balance since its opening
// line; the block closes when it returns to zero.
type openBlock struct {
	indent    string
	outerTabs int
	depth     int
	openLine  int
}

// structuralRules are tried in order against each masked line. Loop
// constructs come first so the longer marker words are claimed before
// the conditional tier words, then the declaration form.
var structuralRules = []struct {
	kind MarkerKind
	re   *regexp.Regexp
}{
	{KindSometimesWhile, reSometimesWhile},
	{KindEventuallyUntil, reEventually},
	{KindKindaRepeat, reKindaRepeat},
	{KindMaybeFor, reMaybeFor},
	{KindConditional, reConditional},
	{KindKindaDecl, reKindaDecl},
}

// Transform rewrites src and reports every marker it lowered. name is
// used in error positions only. On the first malformed or unknown
// marker it returns a *SyntaxError and no output.
func (e *Engine) Transform(name string, src []byte) (*Result, error) {
	text := string(src)
	if !strings.Contains(text, "~") {
		return &Result{Output: src, Map: identityMap(text)}, nil
	}

	lines := strings.Split(text, "\n")

	var (
		out     []string
		mapping []int
		matches []Match
		blocks  []openBlock
		st      scanState
		counts  tempCounters
	)
	emit := func(line string, inputLine int) {
		out = append(out, line)
		mapping = append(mapping, inputLine)
	}

	for i, raw := range lines {
		lineNo := i + 1
		entry := st
		masked, next := maskLine(raw, entry)
		st = next

		delta := strings.Count(masked, "{") - strings.Count(masked, "}")
		for b := range blocks {
			blocks[b].depth += delta
		}

		line := raw
		if strings.IndexByte(masked, '~') >= 0 {
			newLine, guard, m := e.rewriteLine(lineNo, raw, masked, &counts)
			if m != nil {
				matches = append(matches, *m)
			}
			line = newLine

			var err error
			line, err = e.inlinePass(name, lineNo, line, entry, &matches)
			if err != nil {
				return nil, err
			}

			if m != nil && m.Kind == KindMaybeFor {
				outer := len(blocks)
				tabs := strings.Repeat("\t", outer)
				emit(tabs+line, lineNo)
				emit(tabs+guard, lineNo)
				blocks = append(blocks, openBlock{
					indent:    blockIndent(raw),
					outerTabs: outer,
					depth:     delta,
					openLine:  lineNo,
				})
				continue
			}
		}

		for len(blocks) > 0 && blocks[len(blocks)-1].depth <= 0 {
			b := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			emit(strings.Repeat("\t", b.outerTabs)+b.indent+"\t}", lineNo)
		}

		if len(blocks) > 0 && line != "" && !entry.inRaw && !entry.inComment {
			line = strings.Repeat("\t", len(blocks)) + line
		}
		emit(line, lineNo)
	}

	if len(blocks) > 0 {
		b := blocks[len(blocks)-1]
		err := syntaxErr(b.openLine, len(b.indent), "~maybe_for", "unclosed iteration block")
		err.File = name
		return nil, err
	}

	if len(matches) == 0 {
		return &Result{Output: src, Map: identityMap(text)}, nil
	}

	out, mapping = injectImport(out, mapping)

	return &Result{
		Output:  []byte(strings.Join(out, "\n")),
		Matches: matches,
		Map:     &SourceMap{toInput: mapping},
		Changed: true,
	}, nil
}

// tempCounters hands out per-file loop temporaries so nested and
// sibling loops never collide.
type tempCounters struct {
	while  int
	repeat int
	until  int
}

// rewriteLine applies the first structural rule that matches. It
// returns the rewritten line, the guard line when the construct wraps
// its body (empty otherwise), and the recorded match. Lines with no
// structural marker pass through unchanged.
func (e *Engine) rewriteLine(lineNo int, line, masked string, c *tempCounters) (string, string, *Match) {
	for _, rule := range structuralRules {
		g := rule.re.FindStringSubmatchIndex(masked)
		if g == nil {
			continue
		}
		pick := func(k int) string {
			if g[2*k] < 0 {
				return ""
			}
			return line[g[2*k] : g[2*k+1]]
		}
		indent := pick(1)
		m := &Match{Kind: rule.kind, Line: lineNo, Col: len(indent) + 1}

		switch rule.kind {
		case KindSometimesWhile:
			cond, suffix := pick(2), line[g[7]:]
			id := fmt.Sprintf("_fz_w%d", c.while)
			c.while++
			rew := fmt.Sprintf("%sfor %s := 0; fuzzy.SometimesWhile(%s, %s); %s++ {%s",
				indent, id, id, cond, id, suffix)
			m.Text = strings.TrimSpace(line[g[3]:g[7]])
			m.Rewrite = strings.TrimSpace(rew)
			return rew, "", m

		case KindEventuallyUntil:
			cond, suffix := pick(2), line[g[7]:]
			id := fmt.Sprintf("_fz_e%d", c.until)
			c.until++
			rew := fmt.Sprintf("%sfor %s := fuzzy.EventuallyBegin(); fuzzy.EventuallyUntil(%s, %s); {%s",
				indent, id, id, cond, suffix)
			m.Text = strings.TrimSpace(line[g[3]:g[7]])
			m.Rewrite = strings.TrimSpace(rew)
			return rew, "", m

		case KindKindaRepeat:
			count, suffix := pick(2), line[g[7]:]
			iv := fmt.Sprintf("_fz_r%d", c.repeat)
			nv := fmt.Sprintf("_fz_n%d", c.repeat)
			c.repeat++
			rew := fmt.Sprintf("%sfor %s, %s := 0, fuzzy.KindaRepeat(%s); %s < %s; %s++ {%s",
				indent, iv, nv, count, iv, nv, iv, suffix)
			m.Text = strings.TrimSpace(line[g[3]:g[7]])
			m.Rewrite = strings.TrimSpace(rew)
			return rew, "", m

		case KindMaybeFor:
			header, suffix := pick(2), line[g[7]:]
			rew := fmt.Sprintf("%sfor %s {%s", indent, header, suffix)
			guard := indent + "\tif fuzzy.MaybeFor() {"
			m.Text = strings.TrimSpace(line[g[3]:g[7]])
			m.Rewrite = strings.TrimSpace(rew) + " " + strings.TrimSpace(guard)
			return rew, guard, m

		case KindConditional:
			tier, cond, suffix := pick(2), pick(3), line[g[9]:]
			call := tierFuncs[tier] + "(" + cond + ")"
			rew := indent + "if " + call + " {" + suffix
			m.Tier = tier
			m.Text = strings.TrimSpace(line[g[3]:g[9]])
			m.Rewrite = strings.TrimSpace(rew)
			return rew, "", m

		case KindKindaDecl:
			ident, op, expr := pick(2), pick(3), pick(4)
			suffix := line[g[9]:]
			rew := fmt.Sprintf("%s%s %s fuzzy.Kinda(%s)%s", indent, ident, op, expr, suffix)
			m.Text = strings.TrimSpace(line[g[3]:g[9]])
			m.Rewrite = strings.TrimSpace(rew)
			return rew, "", m
		}
	}
	return line, "", nil
}

// inlinePass lowers every whole-word ~ish occurrence on the line, then
// rejects any sigil still standing: a known word at this point is a
// malformed construct, anything else is not in the vocabulary.
func (e *Engine) inlinePass(name string, lineNo int, line string, entry scanState, matches *[]Match) (string, error) {
	for {
		masked, _ := maskLine(line, entry)
		idx := findIshMarker(masked)
		if idx < 0 {
			break
		}
		var err error
		line, err = e.rewriteIsh(name, lineNo, line, masked, idx, matches)
		if err != nil {
			return "", err
		}
	}

	masked, _ := maskLine(line, entry)
	if loc := reSigil.FindStringIndex(masked); loc != nil {
		word := masked[loc[0]+1 : loc[1]]
		msg := "unknown marker"
		if knownMarkerWords[word] {
			msg = fmt.Sprintf("malformed ~%s construct", word)
		}
		err := syntaxErr(lineNo, loc[0], masked[loc[0]:loc[1]], msg)
		err.File = name
		return "", err
	}
	return line, nil
}

// rewriteIsh lowers the single ~ish occurrence at idx according to its
// classified role and records the match.
func (e *Engine) rewriteIsh(name string, lineNo int, line, masked string, idx int, matches *[]Match) (string, error) {
	fail := func(msg string) error {
		err := syntaxErr(lineNo, idx, ishMarker, msg)
		err.File = name
		return err
	}

	switch classifyIsh(masked, idx) {
	case roleValue:
		opS, opE, ok := spanForward(masked, idx+len(ishMarker))
		if !ok {
			return "", fail("tolerance marker needs an operand")
		}
		call := "fuzzy.IshValue(" + line[opS:opE] + ")"
		m := Match{Kind: KindIshValue, Line: lineNo, Col: idx + 1,
			Text: strings.TrimSpace(line[idx:opE]), Rewrite: call}
		*matches = append(*matches, m)
		return line[:idx] + call + line[opE:], nil

	case roleAssign:
		g := reBareAssign.FindStringSubmatchIndex(masked)
		ident := line[g[4]:g[5]]
		rhsS := idx + len(ishMarker)
		for rhsS < len(masked) && (masked[rhsS] == ' ' || masked[rhsS] == '\t') {
			rhsS++
		}
		rhsE := len(strings.TrimRight(masked, " \t\r"))
		if rhsS >= rhsE {
			return "", fail("tolerance marker needs an operand")
		}
		call := fmt.Sprintf("%s = fuzzy.IshAssign(%s, %s)", ident, ident, line[rhsS:rhsE])
		m := Match{Kind: KindIshAssign, Line: lineNo, Col: idx + 1,
			Text: strings.TrimSpace(line[g[4]:rhsE]), Rewrite: call}
		*matches = append(*matches, m)
		return line[:g[4]] + call + line[rhsE:], nil

	default:
		lS, lE, ok := spanBackward(masked, idx)
		if !ok {
			return "", fail("tolerance comparison is missing its left operand")
		}
		rS, rE, ok := spanForward(masked, idx+len(ishMarker))
		if !ok {
			return "", fail("tolerance comparison is missing its right operand")
		}
		call := "fuzzy.IshCompare(" + line[lS:lE] + ", " + line[rS:rE] + ")"
		m := Match{Kind: KindIshCompare, Line: lineNo, Col: idx + 1,
			Text: strings.TrimSpace(line[lS:rE]), Rewrite: call}
		*matches = append(*matches, m)
		return line[:lS] + call + line[rE:], nil
	}
}

// blockIndent returns the leading whitespace of a line.
func blockIndent(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}

// identityMap maps every output line to the same input line.
func identityMap(text string) *SourceMap {
	n := strings.Count(text, "\n") + 1
	m := make([]int, n)
	for i := range m {
		m[i] = i + 1
	}
	return &SourceMap{toInput: m}
}

// injectImport makes sure the runtime facade is imported, preferring an
// existing import block. Injected lines carry no input mapping.
func injectImport(lines []string, mapping []int) ([]string, []int) {
	quoted := `"` + fuzzyImportPath + `"`

	inBlock := false
	blockOpen := -1
	singleAt := -1
	packageAt := -1
	for i, ln := range lines {
		t := strings.TrimSpace(ln)
		switch {
		case strings.HasPrefix(t, "package "):
			if packageAt < 0 {
				packageAt = i
			}
		case strings.HasPrefix(t, "import ("):
			if blockOpen < 0 {
				blockOpen = i
			}
			inBlock = true
		case inBlock && strings.HasPrefix(t, ")"):
			inBlock = false
		case strings.HasPrefix(t, "import "):
			if singleAt < 0 {
				singleAt = i
			}
		}
		if (inBlock || strings.HasPrefix(t, "import ")) && strings.Contains(ln, quoted) {
			return lines, mapping
		}
	}

	insert := func(at int, add ...string) ([]string, []int) {
		outLines := make([]string, 0, len(lines)+len(add))
		outMap := make([]int, 0, len(mapping)+len(add))
		outLines = append(outLines, lines[:at]...)
		outMap = append(outMap, mapping[:at]...)
		outLines = append(outLines, add...)
		outMap = append(outMap, make([]int, len(add))...)
		outLines = append(outLines, lines[at:]...)
		outMap = append(outMap, mapping[at:]...)
		return outLines, outMap
	}

	switch {
	case blockOpen >= 0:
		at := blockOpen + 1
		for at < len(lines) {
			t := strings.TrimSpace(lines[at])
			if t == "" || t == ")" || t > quoted {
				break
			}
			at++
		}
		return insert(at, "\t"+quoted)
	case singleAt >= 0:
		return insert(singleAt+1, "import "+quoted)
	case packageAt >= 0:
		return insert(packageAt+1, "", "import "+quoted)
	default:
		return insert(0, "import "+quoted)
	}
}
