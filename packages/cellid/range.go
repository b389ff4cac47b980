package cellid

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Range is a normalized rectangle of cells: Start is always the top-left
// corner and End the bottom-right one, both inclusive and zero-based.
type Range struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// NewRange normalizes two corners given in any order
func NewRange(row1, col1, row2, col2 int) Range {
	return Range{
		StartRow: min(row1, row2),
		StartCol: min(col1, col2),
		EndRow:   max(row1, row2),
		EndCol:   max(col1, col2),
	}
}

// ParseRange parses "ID:ID". the text must contain exactly one colon with
// a valid identifier on each side; the endpoints may come in any order.
func ParseRange(text string) (Range, error) {
	start, end, found := strings.Cut(text, ":")
	if !found || strings.Contains(end, ":") {
		return Range{}, fmt.Errorf("range %q: %w", text, ErrInvalidID)
	}

	r1, c1, err := CoordsFromID(start)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", text, err)
	}
	r2, c2, err := CoordsFromID(end)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", text, err)
	}

	return NewRange(r1, c1, r2, c2), nil
}

// Contains checks if a cell is within the range
func (r Range) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow &&
		col >= r.StartCol && col <= r.EndCol
}

// Size returns the number of cells covered by the range, saturating at
// math.MaxInt for absurdly large rectangles
func (r Range) Size() int {
	height := r.EndRow - r.StartRow + 1
	width := r.EndCol - r.StartCol + 1
	if height <= 0 || width <= 0 {
		return math.MaxInt
	}
	if height > math.MaxInt/width {
		return math.MaxInt
	}
	return height * width
}

// Cells iterates the identifiers of the range in row-major order
func (r Range) Cells() iter.Seq[string] {
	return func(yield func(string) bool) {
		for row := r.StartRow; row <= r.EndRow; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				if !yield(IDFromCoords(row, col)) {
					return
				}
			}
		}
	}
}

// String returns the canonical "A1:B2" form
func (r Range) String() string {
	return IDFromCoords(r.StartRow, r.StartCol) + ":" + IDFromCoords(r.EndRow, r.EndCol)
}

// ExpandRange lists every identifier in a range text, row-major. malformed
// text expands to an empty slice rather than an error.
func ExpandRange(text string) []string {
	r, err := ParseRange(text)
	if err != nil {
		return []string{}
	}

	ids := make([]string, 0, min(r.Size(), 1024))
	for id := range r.Cells() {
		ids = append(ids, id)
	}
	return ids
}
