// Package cellid converts between textual cell identifiers ("AA12") and
// zero-based (row, column) coordinates, and expands rectangular ranges
// ("A1:B3") into the identifiers they cover.
package cellid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxLabelLen bounds column labels so FromLabel cannot overflow. seven
// letters reach column 8,353,082,582, far past any grid we render.
const MaxLabelLen = 7

// ErrInvalidID is returned for text that is not a cell identifier
var ErrInvalidID = errors.New("invalid cell identifier")

var idPattern = regexp.MustCompile(`^([A-Za-z]+)([1-9][0-9]*)$`)

// ToLabel returns the bijective base-26 column label for a zero-based
// column index: 0 -> A, 25 -> Z, 26 -> AA, 701 -> ZZ.
func ToLabel(col int) string {
	if col < 0 {
		return ""
	}

	n := col + 1
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = letters[(n-1)%26]
		n = (n - 1) / 26
	}
	return string(buf[i:])
}

// FromLabel is the inverse of ToLabel. labels are case-insensitive.
func FromLabel(label string) (int, error) {
	if label == "" || len(label) > MaxLabelLen {
		return 0, fmt.Errorf("column %q: %w", label, ErrInvalidID)
	}

	n := 0
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'A' && c <= 'Z':
			n = n*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			n = n*26 + int(c-'a'+1)
		default:
			return 0, fmt.Errorf("column %q: %w", label, ErrInvalidID)
		}
	}
	return n - 1, nil
}

// IDFromCoords builds the identifier of the cell at a zero-based row and
// column, e.g. (0, 0) -> "A1".
func IDFromCoords(row, col int) string {
	return ToLabel(col) + strconv.Itoa(row+1)
}

// CoordsFromID parses an identifier into zero-based row and column
func CoordsFromID(id string) (row int, col int, err error) {
	match := idPattern.FindStringSubmatch(id)
	if match == nil {
		return 0, 0, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	col, err = FromLabel(match[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	// the pattern guarantees digits, so only overflow can fail here
	rowNumber, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	return rowNumber - 1, col, nil
}

// Canonical returns the uppercase form of a valid identifier
func Canonical(id string) (string, error) {
	if _, _, err := CoordsFromID(id); err != nil {
		return "", err
	}
	return strings.ToUpper(id), nil
}

// IsValid reports whether id is a cell identifier in any letter case
func IsValid(id string) bool {
	_, _, err := CoordsFromID(id)
	return err == nil
}
