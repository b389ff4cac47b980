package spreadsheet

import "maps"

// Context holds the state of one evaluation pass: the memo table of
// resolved cells and the set of cells currently being resolved. a context
// must not be shared between passes or goroutines.
type Context struct {
	memo     map[string]Value    // resolved cells, written once
	visiting map[string]struct{} // cells mid-resolution (cycle detection)
	depth    int                 // nested RANGE resolutions in progress
}

// NewContext creates an empty evaluation context
func NewContext() *Context {
	return &Context{
		memo:     make(map[string]Value),
		visiting: make(map[string]struct{}),
	}
}

// Lookup returns the memoized value of a cell
func (c *Context) Lookup(id string) (Value, bool) {
	v, ok := c.memo[id]
	return v, ok
}

// Len returns the number of resolved cells
func (c *Context) Len() int {
	return len(c.memo)
}

// Values returns a copy of the memo table
func (c *Context) Values() map[string]Value {
	return maps.Clone(c.memo)
}

// isVisiting checks if a cell is currently being resolved
func (c *Context) isVisiting(id string) bool {
	_, ok := c.visiting[id]
	return ok
}

func (c *Context) markVisiting(id string) {
	c.visiting[id] = struct{}{}
}

func (c *Context) unmarkVisiting(id string) {
	delete(c.visiting, id)
}

// store memoizes a value unless a nested resolution already did
func (c *Context) store(id string, v Value) Value {
	if existing, ok := c.memo[id]; ok {
		return existing
	}
	c.memo[id] = v
	return v
}
