package sheetio

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

// workbook sheet names written by WriteXLSX
const (
	InputSheet  = "Input"
	ValuesSheet = "Values"
)

// ReadXLSX loads one worksheet into a snapshot. formula cells become
// "=<formula>" raw text. an empty sheetName picks the Input sheet when
// present, otherwise the first sheet.
func ReadXLSX(r io.Reader, sheetName string) (spreadsheet.Snapshot, int, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if sheetName == "" {
		switch {
		case slices.Contains(names, InputSheet):
			sheetName = InputSheet
		case len(names) > 0:
			sheetName = names[0]
		}
	}
	if !slices.Contains(names, sheetName) {
		return nil, 0, 0, fmt.Errorf("workbook has no sheet %q", sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	grid := make([][]string, len(rows))
	for row, record := range rows {
		grid[row] = make([]string, len(record))
		for col, text := range record {
			id := cellid.IDFromCoords(row, col)
			formula, err := f.GetCellFormula(sheetName, id)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("failed to read formula at %s: %w", id, err)
			}
			if formula != "" {
				text = "=" + formula
			}
			grid[row][col] = text
		}
	}

	sheet, numRows, numCols := SnapshotFromGrid(grid)
	return sheet, numRows, numCols, nil
}

// WriteXLSX writes a workbook with the raw text of every cell on the Input
// sheet and the evaluated values on the Values sheet. raw text is stored
// as plain strings so formulas round-trip through ReadXLSX unchanged.
func WriteXLSX(w io.Writer, sheet spreadsheet.Snapshot, values map[string]spreadsheet.Value, rows, cols int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), InputSheet); err != nil {
		return fmt.Errorf("failed to name input sheet: %w", err)
	}
	if _, err := f.NewSheet(ValuesSheet); err != nil {
		return fmt.Errorf("failed to add values sheet: %w", err)
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			id := cellid.IDFromCoords(row, col)
			if raw := sheet[id]; raw != "" {
				if err := f.SetCellStr(InputSheet, id, raw); err != nil {
					return fmt.Errorf("failed to write %s: %w", id, err)
				}
			}
			if err := writeValue(f, id, values[id]); err != nil {
				return fmt.Errorf("failed to write value of %s: %w", id, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeValue(f *excelize.File, id string, v spreadsheet.Value) error {
	switch {
	case v.IsError():
		return f.SetCellStr(ValuesSheet, id, v.String())
	case v.Kind == spreadsheet.ValueKindNumber && !math.IsInf(v.Number, 0) && !math.IsNaN(v.Number):
		return f.SetCellFloat(ValuesSheet, id, v.Number, -1, 64)
	case v.Kind == spreadsheet.ValueKindEmpty:
		return nil
	default:
		return f.SetCellStr(ValuesSheet, id, v.String())
	}
}
