// Package sheetio moves snapshots in and out of CSV and XLSX files. it
// passes whole snapshots across the engine boundary and never evaluates
// anything itself.
package sheetio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

// ReadCSV parses CSV text into a snapshot. the grid is as tall as the
// number of records and as wide as the longest one, never smaller than
// 1x1. quoted fields may hold commas, quotes and line breaks; CRLF line
// endings are accepted.
func ReadCSV(r io.Reader) (spreadsheet.Snapshot, int, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read csv: %w", err)
	}

	sheet, rows, cols := SnapshotFromGrid(grid)
	return sheet, rows, cols, nil
}

// WriteCSV writes a grid of cell text as CSV
func WriteCSV(w io.Writer, grid [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(grid); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// SnapshotFromGrid stores every non-empty grid entry under its cell id and
// reports the grid dimensions, at least 1x1
func SnapshotFromGrid(grid [][]string) (spreadsheet.Snapshot, int, int) {
	sheet := spreadsheet.Snapshot{}
	cols := 0
	for row, record := range grid {
		cols = max(cols, len(record))
		for col, raw := range record {
			if raw == "" {
				continue
			}
			sheet[cellid.IDFromCoords(row, col)] = raw
		}
	}
	return sheet, max(len(grid), 1), max(cols, 1)
}

// GridFromSnapshot lays the raw text of a snapshot out as rows x cols
func GridFromSnapshot(sheet spreadsheet.Snapshot, rows, cols int) [][]string {
	return buildGrid(rows, cols, func(id string) string {
		return sheet[id]
	})
}

// ValuesGrid lays evaluated values out as rows x cols in their display
// form, errors included
func ValuesGrid(values map[string]spreadsheet.Value, rows, cols int) [][]string {
	return buildGrid(rows, cols, func(id string) string {
		return values[id].String()
	})
}

func buildGrid(rows, cols int, cell func(id string) string) [][]string {
	grid := make([][]string, rows)
	for row := range grid {
		grid[row] = make([]string, cols)
		for col := range grid[row] {
			grid[row][col] = cell(cellid.IDFromCoords(row, col))
		}
	}
	return grid
}
