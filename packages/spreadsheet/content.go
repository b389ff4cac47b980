package spreadsheet

import (
	"strings"

	"github.com/vogtb/excel-clone/packages/formula"
)

// ContentKind is the shape of a cell's raw text
type ContentKind uint8

const (
	ContentEmpty   ContentKind = 0 // no text
	ContentLiteral ContentKind = 1 // leading apostrophe forces text
	ContentFormula ContentKind = 2 // leading "="
	ContentNumber  ContentKind = 3 // numeric-looking text
	ContentText    ContentKind = 4 // anything else
)

// Content is a cell's raw text classified once. Text holds the literal
// remainder, the formula body without its marker, or the raw text.
type Content struct {
	Kind   ContentKind
	Text   string
	Number float64
}

// Classify sorts raw cell text into its content kind
func Classify(raw string) Content {
	switch {
	case raw == "":
		return Content{Kind: ContentEmpty}
	case strings.HasPrefix(raw, "'"):
		return Content{Kind: ContentLiteral, Text: raw[1:]}
	case strings.HasPrefix(raw, "="):
		return Content{Kind: ContentFormula, Text: raw[1:]}
	}

	if n, ok := formula.ParseNumeric(raw); ok {
		return Content{Kind: ContentNumber, Text: raw, Number: n}
	}
	return Content{Kind: ContentText, Text: raw}
}

// Value resolves non-formula content directly. formulas need an evaluator
// and resolve to an empty value here.
func (c Content) Value() Value {
	switch c.Kind {
	case ContentLiteral, ContentText:
		return StringValue(c.Text)
	case ContentNumber:
		return NumberValue(c.Number)
	default:
		return EmptyValue()
	}
}
