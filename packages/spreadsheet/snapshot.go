package spreadsheet

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vogtb/excel-clone/packages/cellid"
)

// Snapshot maps canonical cell ids to the raw text the user entered. it is
// sparse: a snapshot never holds an entry for an empty cell. evaluation
// never mutates a snapshot.
type Snapshot map[string]string

// Set stores raw text for a cell, deleting the entry when text is empty
func (s Snapshot) Set(id string, raw string) error {
	canonical, err := cellid.Canonical(id)
	if err != nil {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell id: %v", err))
	}
	if raw == "" {
		delete(s, canonical)
		return nil
	}
	s[canonical] = raw
	return nil
}

// Get returns the raw text of a cell, "" when unset
func (s Snapshot) Get(id string) string {
	if raw, ok := s[id]; ok {
		return raw
	}
	canonical, err := cellid.Canonical(id)
	if err != nil {
		return ""
	}
	return s[canonical]
}

// Clone returns an independent copy
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return maps.Clone(s)
}

// IDs returns the stored ids in row-major order
func (s Snapshot) IDs() []string {
	ids := slices.Collect(maps.Keys(s))
	SortRowMajor(ids)
	return ids
}

// Extent returns the smallest grid dimensions covering every stored cell
func (s Snapshot) Extent() (rows int, cols int) {
	for id := range s {
		row, col, err := cellid.CoordsFromID(id)
		if err != nil {
			continue
		}
		rows = max(rows, row+1)
		cols = max(cols, col+1)
	}
	return rows, cols
}

// ValidateSnapshot checks a snapshot received from outside the process:
// every key must be a canonical cell id, no value may be empty and the grid
// must be at least one cell in each direction
func ValidateSnapshot(sheet Snapshot, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("grid dimensions must be positive, got %dx%d", rows, cols))
	}
	for id, raw := range sheet {
		canonical, err := cellid.Canonical(id)
		if err != nil {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell id: %v", err))
		}
		if canonical != id {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("cell id %q is not canonical, expected %q", id, canonical))
		}
		if raw == "" {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("cell %s stores empty text", id))
		}
	}
	return nil
}

// SortRowMajor orders cell ids by row, then column. invalid ids sort last
// in lexical order.
func SortRowMajor(ids []string) {
	slices.SortFunc(ids, compareRowMajor)
}

func compareRowMajor(a, b string) int {
	ra, ca, errA := cellid.CoordsFromID(a)
	rb, cb, errB := cellid.CoordsFromID(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	if ra != rb {
		return ra - rb
	}
	if ca != cb {
		return ca - cb
	}
	return strings.Compare(a, b)
}
