package spreadsheet

import (
	"maps"
	"slices"

	"github.com/vogtb/excel-clone/packages/cellid"
)

// DependencyNode represents a formula cell, or a cell a formula reads, in
// the dependency graph
type DependencyNode struct {
	// id of *THIS* node
	ID string

	// cell-to-cell dependencies
	CellPrecedents map[string]*DependencyNode // cells this cell depends on
	CellDependents map[string]*DependencyNode // cells that depend on this cell

	// range dependencies (only for formula cells that depend on ranges)
	RangePrecedents map[cellid.Range]struct{}

	// formula body without its "=" marker, empty for plain cells
	Formula string
}

// DependencyGraph is a read-only view of which cells read which. it is
// built from a snapshot for inspection and never drives evaluation.
type DependencyGraph struct {
	nodes          map[string]*DependencyNode           // all nodes in the graph
	rangeObservers map[cellid.Range]map[string]struct{} // range -> cells that depend on it
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:          make(map[string]*DependencyNode),
		rangeObservers: make(map[cellid.Range]map[string]struct{}),
	}
}

// BuildGraph records the references and ranges of every formula in sheet
func BuildGraph(sheet Snapshot) *DependencyGraph {
	dg := NewDependencyGraph()
	for id, raw := range sheet {
		content := Classify(raw)
		if content.Kind != ContentFormula {
			continue
		}

		p := prepare(content.Text)
		dg.GetOrCreateNode(id).Formula = content.Text
		for _, ref := range p.refs {
			dg.AddCellDependency(id, ref)
		}
		for _, r := range p.ranges {
			dg.AddRangeDependency(id, r)
		}
	}
	return dg
}

// GetOrCreateNode gets an existing node or creates a new one
func (dg *DependencyGraph) GetOrCreateNode(id string) *DependencyNode {
	if node, exists := dg.nodes[id]; exists {
		return node
	}

	node := &DependencyNode{
		ID:              id,
		CellPrecedents:  make(map[string]*DependencyNode),
		CellDependents:  make(map[string]*DependencyNode),
		RangePrecedents: make(map[cellid.Range]struct{}),
	}
	dg.nodes[id] = node
	return node
}

// GetNode retrieves a node if it exists
func (dg *DependencyGraph) GetNode(id string) (*DependencyNode, bool) {
	node, exists := dg.nodes[id]
	return node, exists
}

// AddCellDependency adds a cell-to-cell dependency (from depends on to)
func (dg *DependencyGraph) AddCellDependency(from, to string) {
	fromNode := dg.GetOrCreateNode(from)
	toNode := dg.GetOrCreateNode(to)

	fromNode.CellPrecedents[to] = toNode
	toNode.CellDependents[from] = fromNode
}

// AddRangeDependency adds a cell-to-range dependency (from depends on r)
func (dg *DependencyGraph) AddRangeDependency(from string, r cellid.Range) {
	node := dg.GetOrCreateNode(from)
	node.RangePrecedents[r] = struct{}{}

	if dg.rangeObservers[r] == nil {
		dg.rangeObservers[r] = make(map[string]struct{})
	}
	dg.rangeObservers[r][from] = struct{}{}
}

// IsInRange checks if a cell is within a range
func (dg *DependencyGraph) IsInRange(id string, r cellid.Range) bool {
	row, col, err := cellid.CoordsFromID(id)
	if err != nil {
		return false
	}
	return r.Contains(row, col)
}

// DirectPrecedents returns the cells a cell names directly, row-major
func (dg *DependencyGraph) DirectPrecedents(id string) []string {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}
	return sortedKeys(node.CellPrecedents)
}

// DirectDependents returns the cells naming this cell directly, row-major
func (dg *DependencyGraph) DirectDependents(id string) []string {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}
	return sortedKeys(node.CellDependents)
}

// RangePrecedents returns the ranges a cell depends on, ordered by their
// top-left corner
func (dg *DependencyGraph) RangePrecedents(id string) []cellid.Range {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}

	result := slices.Collect(maps.Keys(node.RangePrecedents))
	slices.SortFunc(result, func(a, b cellid.Range) int {
		if c := compareRowMajor(cellid.IDFromCoords(a.StartRow, a.StartCol), cellid.IDFromCoords(b.StartRow, b.StartCol)); c != 0 {
			return c
		}
		return compareRowMajor(cellid.IDFromCoords(a.EndRow, a.EndCol), cellid.IDFromCoords(b.EndRow, b.EndCol))
	})
	return result
}

// AllDependents returns every cell affected by a change to id: transitive
// dependents plus observers of any range containing a cell on the way
func (dg *DependencyGraph) AllDependents(id string) []string {
	visited := map[string]struct{}{id: {}}
	queue := []string{id}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var next []string
		if node, exists := dg.nodes[current]; exists {
			for dependent := range node.CellDependents {
				next = append(next, dependent)
			}
		}
		for r, observers := range dg.rangeObservers {
			if !dg.IsInRange(current, r) {
				continue
			}
			for observer := range observers {
				next = append(next, observer)
			}
		}

		for _, dependent := range next {
			if _, seen := visited[dependent]; seen {
				continue
			}
			visited[dependent] = struct{}{}
			result = append(result, dependent)
			queue = append(queue, dependent)
		}
	}

	SortRowMajor(result)
	return result
}

// precedents lists the cells a node reads, range members included
func (dg *DependencyGraph) precedents(node *DependencyNode) []string {
	ids := sortedKeys(node.CellPrecedents)
	for _, r := range dg.RangePrecedents(node.ID) {
		for member := range r.Cells() {
			if _, exists := dg.nodes[member]; exists {
				ids = append(ids, member)
			}
		}
	}
	return ids
}

// CalculationOrder returns the formula cells with every precedent ahead of
// its dependents, and whether a cycle was found
func (dg *DependencyGraph) CalculationOrder() ([]string, bool) {
	// three states: unvisited (not in map), visiting (false), visited (true)
	state := make(map[string]bool)
	var order []string
	hasCycle := false

	type frame struct {
		id         string
		precedents []string
		next       int
	}

	// explicit stack so long chains don't grow the goroutine stack
	var stack []frame
	push := func(id string) {
		if completed, exists := state[id]; exists {
			if !completed {
				hasCycle = true
			}
			return
		}
		state[id] = false
		f := frame{id: id}
		if node, exists := dg.nodes[id]; exists {
			f.precedents = dg.precedents(node)
		}
		stack = append(stack, f)
	}

	for _, root := range sortedKeys(dg.nodes) {
		push(root)
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.precedents) {
				precedent := top.precedents[top.next]
				top.next++
				push(precedent)
				continue
			}

			if node, exists := dg.nodes[top.id]; exists && node.Formula != "" {
				order = append(order, top.id)
			}
			state[top.id] = true
			stack = stack[:len(stack)-1]
		}
	}

	return order, hasCycle
}

// HasCycle checks if there are circular dependencies
func (dg *DependencyGraph) HasCycle() bool {
	_, hasCycle := dg.CalculationOrder()
	return hasCycle
}

// NodeCount returns the number of nodes in the graph
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.nodes)
}

// RangeObserverCount returns the number of observed ranges
func (dg *DependencyGraph) RangeObserverCount() int {
	return len(dg.rangeObservers)
}

func sortedKeys[V any](m map[string]V) []string {
	ids := slices.Collect(maps.Keys(m))
	SortRowMajor(ids)
	return ids
}
