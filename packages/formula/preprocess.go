// Package formula prepares formula text for evaluation and hosts the
// expression grammar the engine evaluates it with.
package formula

import (
	"regexp"
	"strconv"
	"strings"
)

// RangeFunc is the function range tokens are rewritten into
const RangeFunc = "RANGE"

var (
	refPattern   = regexp.MustCompile(`\b[A-Za-z]+[1-9][0-9]*\b`)
	rangePattern = regexp.MustCompile(`[A-Za-z]+[1-9][0-9]*:[A-Za-z]+[1-9][0-9]*`)

	// a literal is the whole argument of a RANGE call when it sits
	// between these two code fragments
	rangeCallOpen  = regexp.MustCompile(`\b` + RangeFunc + `\(\s*$`)
	rangeCallClose = regexp.MustCompile(`^\s*\)`)
)

// Preprocessed is a formula body ready for the grammar
type Preprocessed struct {
	// Body has every range token replaced by RANGE("<token>")
	Body string
	// Refs holds distinct uppercased bare references in order of first
	// appearance. range endpoints show up here too.
	Refs []string
	// Ranges holds distinct uppercased range tokens in order of first
	// appearance, including string literals passed straight to RANGE
	Ranges []string
}

// Preprocess scans a formula body (the text after "=") for references and
// ranges, and rewrites ranges into RANGE calls. it is a single left to
// right pass and never rescans its own output. string literals are copied
// through untouched.
func Preprocess(body string) Preprocessed {
	out := Preprocessed{
		Refs:   []string{},
		Ranges: []string{},
	}
	seenRefs := make(map[string]struct{})
	seenRanges := make(map[string]struct{})

	var b strings.Builder
	b.Grow(len(body) + 16)

	addRange := func(tok string) {
		tok = strings.ToUpper(tok)
		if _, ok := seenRanges[tok]; !ok {
			seenRanges[tok] = struct{}{}
			out.Ranges = append(out.Ranges, tok)
		}
	}

	segs := splitLiterals(body)
	for i, seg := range segs {
		if seg.literal {
			if tok, ok := rangeArgument(segs, i); ok {
				addRange(tok)
			}
			b.WriteString(seg.text)
			continue
		}

		for _, ref := range refPattern.FindAllString(seg.text, -1) {
			ref = strings.ToUpper(ref)
			if _, ok := seenRefs[ref]; !ok {
				seenRefs[ref] = struct{}{}
				out.Refs = append(out.Refs, ref)
			}
		}

		b.WriteString(rangePattern.ReplaceAllStringFunc(seg.text, func(tok string) string {
			addRange(tok)
			return RangeFunc + "(" + strconv.Quote(strings.ToUpper(tok)) + ")"
		}))
	}

	out.Body = b.String()
	return out
}

// rangeArgument reports the text of segs[i] when it is a plain quoted
// literal forming the sole argument of a RANGE call
func rangeArgument(segs []segment, i int) (string, bool) {
	if i == 0 || i+1 >= len(segs) || segs[i-1].literal || segs[i+1].literal {
		return "", false
	}
	if !rangeCallOpen.MatchString(segs[i-1].text) || !rangeCallClose.MatchString(segs[i+1].text) {
		return "", false
	}

	text := segs[i].text
	if len(text) < 2 || (text[0] != '"' && text[0] != '\'') || text[len(text)-1] != text[0] {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if strings.ContainsAny(inner, "\\\"'") {
		return "", false
	}
	return inner, true
}

type segment struct {
	text    string
	literal bool
}

// splitLiterals cuts body into alternating code and string literal
// segments. an unterminated literal runs to the end of the body and is
// left for the grammar to reject.
func splitLiterals(body string) []segment {
	var segs []segment
	start := 0
	for i := 0; i < len(body); i++ {
		quote := body[i]
		if quote != '"' && quote != '\'' && quote != '`' {
			continue
		}

		if i > start {
			segs = append(segs, segment{text: body[start:i]})
		}

		j := i + 1
		for j < len(body) && body[j] != quote {
			if body[j] == '\\' && quote != '`' {
				j++
			}
			j++
		}
		end := min(j+1, len(body))
		segs = append(segs, segment{text: body[i:end], literal: true})
		start = end
		i = end - 1
	}

	if start < len(body) {
		segs = append(segs, segment{text: body[start:]})
	}
	return segs
}
