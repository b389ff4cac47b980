// Package sheetstore persists sheets in a bbolt file. each sheet is one
// JSON document keyed by its uuid inside a single bucket.
package sheetstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

var ErrSheetNotFound = errors.New("sheet not found")

var sheetsBucket = []byte("sheets")

// Sheet is a stored snapshot plus the grid it is displayed in
type Sheet struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Rows      int                  `json:"rows"`
	Cols      int                  `json:"cols"`
	Cells     spreadsheet.Snapshot `json:"cells"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database file at path
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sheetsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare store %s: %w", path, err)
	}

	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new sheet. names are unique; cells may be nil.
func (s *Store) Create(name string, rows, cols int, cells spreadsheet.Snapshot) (*Sheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, "sheet name is required")
	}
	cells = cells.Clone()
	if err := spreadsheet.ValidateSnapshot(cells, rows, cols); err != nil {
		return nil, err
	}

	sheet := &Sheet{
		ID:        uuid.NewString(),
		Name:      name,
		Rows:      rows,
		Cols:      cols,
		Cells:     cells,
		UpdatedAt: s.now(),
	}
	// cells outside the requested grid widen it
	extentRows, extentCols := cells.Extent()
	sheet.Rows = max(sheet.Rows, extentRows)
	sheet.Cols = max(sheet.Cols, extentCols)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetsBucket)
		taken := false
		err := forEach(bucket, func(existing *Sheet) {
			taken = taken || existing.Name == name
		})
		if err != nil {
			return err
		}
		if taken {
			return spreadsheet.NewApplicationError(spreadsheet.AlreadyExists, fmt.Sprintf("sheet %q already exists", name))
		}
		return put(bucket, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// Get loads a sheet by id
func (s *Store) Get(id string) (*Sheet, error) {
	var sheet *Sheet
	err := s.db.View(func(tx *bbolt.Tx) (err error) {
		sheet, err = get(tx.Bucket(sheetsBucket), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// List returns every stored sheet ordered by name
func (s *Store) List() ([]*Sheet, error) {
	sheets := make([]*Sheet, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return forEach(tx.Bucket(sheetsBucket), func(sheet *Sheet) {
			sheets = append(sheets, sheet)
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sheets, func(a, b *Sheet) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return sheets, nil
}

// SetCell stores raw text for one cell and returns the updated sheet. empty
// text clears the cell. a cell outside the grid grows it to fit.
func (s *Store) SetCell(id, cellID, raw string) (*Sheet, error) {
	canonical, err := cellid.Canonical(cellID)
	if err != nil {
		return nil, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, fmt.Sprintf("invalid cell id: %v", err))
	}
	row, col, err := cellid.CoordsFromID(canonical)
	if err != nil {
		return nil, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, fmt.Sprintf("invalid cell id: %v", err))
	}

	var sheet *Sheet
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetsBucket)
		sheet, err = get(bucket, id)
		if err != nil {
			return err
		}

		if err := sheet.Cells.Set(canonical, raw); err != nil {
			return err
		}
		if raw != "" {
			sheet.Rows = max(sheet.Rows, row+1)
			sheet.Cols = max(sheet.Cols, col+1)
		}
		sheet.UpdatedAt = s.now()
		return put(bucket, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// Delete removes a sheet
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetsBucket)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%s: %w", id, ErrSheetNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

func get(bucket *bbolt.Bucket, id string) (*Sheet, error) {
	data := bucket.Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrSheetNotFound)
	}
	return decode(data)
}

func put(bucket *bbolt.Bucket, sheet *Sheet) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("failed to encode sheet %s: %w", sheet.ID, err)
	}
	return bucket.Put([]byte(sheet.ID), data)
}

func forEach(bucket *bbolt.Bucket, fn func(*Sheet)) error {
	return bucket.ForEach(func(_, data []byte) error {
		sheet, err := decode(data)
		if err != nil {
			return err
		}
		fn(sheet)
		return nil
	})
}

// decode copies out of data, which bbolt only keeps valid for the
// lifetime of the transaction
func decode(data []byte) (*Sheet, error) {
	sheet := &Sheet{}
	if err := json.Unmarshal(data, sheet); err != nil {
		return nil, fmt.Errorf("failed to decode sheet: %w", err)
	}
	if sheet.Cells == nil {
		sheet.Cells = spreadsheet.Snapshot{}
	}
	return sheet, nil
}
