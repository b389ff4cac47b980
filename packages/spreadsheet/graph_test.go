package spreadsheet

import (
	"fmt"
	"slices"
	"testing"

	"github.com/vogtb/excel-clone/packages/cellid"
)

func TestBuildGraph(t *testing.T) {
	sheet := Snapshot{
		"A1": "1",
		"A2": "2",
		"B1": "=A1*2",
		"B2": "=SUM(A1:A2) + B1",
		"C1": "=B2",
		"D1": "text",
	}
	dg := BuildGraph(sheet)

	t.Run("Precedents", func(t *testing.T) {
		if got := dg.DirectPrecedents("B2"); !slices.Equal(got, []string{"A1", "B1", "A2"}) {
			t.Errorf("DirectPrecedents(B2) = %v", got)
		}
		if got := dg.DirectPrecedents("A1"); len(got) != 0 {
			t.Errorf("DirectPrecedents(A1) = %v, want none", got)
		}
		if got := dg.DirectPrecedents("D1"); got != nil {
			t.Errorf("DirectPrecedents(D1) = %v, want nil", got)
		}
	})

	t.Run("Dependents", func(t *testing.T) {
		if got := dg.DirectDependents("A1"); !slices.Equal(got, []string{"B1", "B2"}) {
			t.Errorf("DirectDependents(A1) = %v", got)
		}
		if got := dg.AllDependents("A1"); !slices.Equal(got, []string{"B1", "C1", "B2"}) {
			t.Errorf("AllDependents(A1) = %v", got)
		}
	})

	t.Run("Ranges", func(t *testing.T) {
		want := []cellid.Range{cellid.NewRange(0, 0, 1, 0)}
		if got := dg.RangePrecedents("B2"); !slices.Equal(got, want) {
			t.Errorf("RangePrecedents(B2) = %v, want %v", got, want)
		}
		if !dg.IsInRange("A2", want[0]) || dg.IsInRange("B2", want[0]) {
			t.Errorf("IsInRange misreports A1:A2 membership")
		}
		if dg.RangeObserverCount() != 1 {
			t.Errorf("RangeObserverCount() = %d, want 1", dg.RangeObserverCount())
		}
	})

	t.Run("CalculationOrder", func(t *testing.T) {
		order, hasCycle := dg.CalculationOrder()
		if hasCycle {
			t.Fatalf("unexpected cycle")
		}
		if !slices.Equal(order, []string{"B1", "B2", "C1"}) {
			t.Errorf("CalculationOrder() = %v", order)
		}
		// A1, A2, B1, B2, C1
		if dg.NodeCount() != 5 {
			t.Errorf("NodeCount() = %d, want 5", dg.NodeCount())
		}
	})
}

func TestGraphRangeObservers(t *testing.T) {
	sheet := Snapshot{
		"A4": "=SUM(A1:A3)",
		"B4": "=A4+1",
	}
	dg := BuildGraph(sheet)

	// A2 is not a range endpoint, so only the observer links it
	if _, ok := dg.GetNode("A2"); ok {
		t.Errorf("A2 should not be a node")
	}
	if got := dg.AllDependents("A2"); !slices.Equal(got, []string{"A4", "B4"}) {
		t.Errorf("AllDependents(A2) = %v, want [A4 B4]", got)
	}
	if got := dg.AllDependents("C9"); len(got) != 0 {
		t.Errorf("AllDependents(C9) = %v, want none", got)
	}
}

func TestGraphCycles(t *testing.T) {
	cases := []struct {
		name  string
		sheet Snapshot
		cycle bool
	}{
		{"NoFormulas", Snapshot{"A1": "1"}, false},
		{"SelfReference", Snapshot{"A1": "=A1"}, true},
		{"TwoCells", Snapshot{"A1": "=B1", "B1": "=A1"}, true},
		{"ThroughRange", Snapshot{"A1": "=SUM(B1:B3)", "B2": "=A1"}, true},
		{"Chain", Snapshot{"A1": "=B1", "B1": "=C1", "C1": "1"}, false},
		{"ThroughRangeLiteral", Snapshot{"A1": `=SUM(RANGE("B1:B2"))`, "B2": "=A1"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := BuildGraph(c.sheet).HasCycle(); got != c.cycle {
				t.Errorf("HasCycle() = %v, want %v", got, c.cycle)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("SetCanonicalizes", func(t *testing.T) {
		s := Snapshot{}
		if err := s.Set("aa10", "x"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if s["AA10"] != "x" || s.Get("aa10") != "x" {
			t.Errorf("snapshot = %v", s)
		}
		if err := s.Set("AA10", ""); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if len(s) != 0 {
			t.Errorf("empty text left an entry: %v", s)
		}
	})

	t.Run("SetRejectsInvalidIDs", func(t *testing.T) {
		for _, id := range []string{"", "A0", "1A", "A-1", "A1:B2"} {
			err := Snapshot{}.Set(id, "x")
			appErr, ok := err.(*AppError)
			if !ok || appErr.Code != InvalidArgument {
				t.Errorf("Set(%q) error = %v, want InvalidArgument", id, err)
			}
		}
	})

	t.Run("Validate", func(t *testing.T) {
		cases := []struct {
			name  string
			sheet Snapshot
			rows  int
			cols  int
			ok    bool
		}{
			{"Valid", Snapshot{"A1": "1", "ZZ100": "=A1"}, 1, 1, true},
			{"Nil", nil, 3, 3, true},
			{"ZeroRows", Snapshot{}, 0, 1, false},
			{"NegativeCols", Snapshot{}, 1, -1, false},
			{"Lowercase", Snapshot{"a1": "1"}, 1, 1, false},
			{"Invalid", Snapshot{"A01": "1"}, 1, 1, false},
			{"EmptyText", Snapshot{"A1": ""}, 1, 1, false},
		}
		for _, c := range cases {
			err := ValidateSnapshot(c.sheet, c.rows, c.cols)
			if (err == nil) != c.ok {
				t.Errorf("%s: ValidateSnapshot() = %v, want ok=%v", c.name, err, c.ok)
			}
		}
	})

	t.Run("OrderingAndExtent", func(t *testing.T) {
		s := Snapshot{"B1": "1", "A2": "2", "A1": "3", "AA1": "4"}
		if got := s.IDs(); !slices.Equal(got, []string{"A1", "B1", "AA1", "A2"}) {
			t.Errorf("IDs() = %v", got)
		}
		rows, cols := s.Extent()
		if rows != 2 || cols != 27 {
			t.Errorf("Extent() = %d, %d, want 2, 27", rows, cols)
		}
	})
}

func TestCalculationOrderLongChain(t *testing.T) {
	const n = 100000
	sheet := Snapshot{"A1": "1"}
	for i := 2; i <= n; i++ {
		sheet[fmt.Sprintf("A%d", i)] = fmt.Sprintf("=A%d+1", i-1)
	}

	order, hasCycle := BuildGraph(sheet).CalculationOrder()
	if hasCycle {
		t.Fatalf("unexpected cycle")
	}
	if len(order) != n-1 {
		t.Fatalf("len(order) = %d, want %d", len(order), n-1)
	}
	for i, id := range order {
		if want := fmt.Sprintf("A%d", i+2); id != want {
			t.Fatalf("order[%d] = %s, want %s", i, id, want)
		}
	}
}
