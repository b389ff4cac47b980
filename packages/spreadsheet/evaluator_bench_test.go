package spreadsheet

import (
	"fmt"
	"testing"

	"github.com/vogtb/excel-clone/packages/cellid"
)

func BenchmarkLargeCellPopulation(b *testing.B) {
	sheet := Snapshot{}
	for row := 0; row < 100; row++ {
		for col := 0; col < 26; col++ {
			sheet[cellid.IDFromCoords(row, col)] = fmt.Sprint((row + 1) * (col + 1))
		}
	}

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, 100, 26)
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	sheet := Snapshot{"A1": "1"}
	for i := 2; i <= 1000; i++ {
		sheet[fmt.Sprintf("A%d", i)] = fmt.Sprintf("=A%d+1", i-1)
	}

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateCell("A1000", sheet, NewContext())
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	sheet := Snapshot{"A1": "100"}
	for i := 2; i <= 500; i++ {
		sheet[fmt.Sprintf("B%d", i)] = "=A1*2"
	}

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, 500, 2)
	}
}

func BenchmarkLargeRangeSUM(b *testing.B) {
	sheet := Snapshot{}
	for i := 1; i <= 1000; i++ {
		sheet[fmt.Sprintf("A%d", i)] = fmt.Sprint(i)
	}
	sheet["B1"] = "=SUM(A1:A1000)"

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, 1000, 2)
	}
}

func BenchmarkAggregationFunctions(b *testing.B) {
	sheet := Snapshot{}
	for i := 1; i <= 500; i++ {
		sheet[fmt.Sprintf("A%d", i)] = fmt.Sprint(i)
	}
	sheet["B1"] = "=SUM(A1:A500)"
	sheet["B2"] = "=AVG(A1:A500)"
	sheet["B3"] = "=COUNT(A1:A500)"
	sheet["B4"] = "=MAX(A1:A500)"
	sheet["B5"] = "=MIN(A1:A500)"

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, 500, 2)
	}
}

func BenchmarkCircularReferenceDetection(b *testing.B) {
	sheet := Snapshot{
		"A1": "=B1+C1",
		"B1": "=C1+D1",
		"C1": "=D1+E1",
		"D1": "=E1+F1",
		"E1": "=F1+G1",
		"F1": "=G1+H1",
		"G1": "=H1+A1",
		"H1": "=A1",
	}

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, 1, 8)
	}
}

func BenchmarkCascadingGrid(b *testing.B) {
	const grid = 20
	sheet := Snapshot{"A1": "1"}
	for row := 0; row < grid; row++ {
		for col := 0; col < grid; col++ {
			id := cellid.IDFromCoords(row, col)
			switch {
			case row == 0 && col == 0:
			case row == 0:
				sheet[id] = fmt.Sprintf("=%s+1", cellid.IDFromCoords(row, col-1))
			case col == 0:
				sheet[id] = fmt.Sprintf("=%s+1", cellid.IDFromCoords(row-1, col))
			default:
				sheet[id] = fmt.Sprintf("=%s+%s", cellid.IDFromCoords(row, col-1), cellid.IDFromCoords(row-1, col))
			}
		}
	}

	e := NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateAll(sheet, grid, grid)
	}
}
