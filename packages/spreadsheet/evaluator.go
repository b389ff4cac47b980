// Package spreadsheet resolves a snapshot of raw cell text into values. it
// walks formula references on demand, memoizes every resolved cell and marks
// circular reference chains with #CYCLE instead of recursing forever.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/formula"
)

// MaxRangeCells bounds how many cells a single range may cover. a formula
// naming a larger range evaluates to #ERROR.
const MaxRangeCells = 1 << 20

// MaxRangeDepth bounds how many RANGE calls with computed arguments may
// nest while resolving cells nothing else has reached yet. the call that
// would go deeper evaluates to #ERROR.
const MaxRangeDepth = 1000

var (
	errRangeTooLarge = errors.New("range too large")
	errRangeTooDeep  = errors.New("range nesting too deep")
)

// Evaluator resolves cells against a Grammar. it holds no per-pass state
// and is safe for concurrent use as long as its grammar is.
type Evaluator struct {
	grammar formula.Grammar
	logger  *slog.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithGrammar replaces the default expr-backed grammar
func WithGrammar(g formula.Grammar) Option {
	return func(e *Evaluator) {
		e.grammar = g
	}
}

// WithLogger sets the logger formula failures and pass summaries go to
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an evaluator. without options it uses the expr
// grammar and discards logs.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.grammar == nil {
		e.grammar = formula.NewExprGrammar()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

var defaultEvaluator = NewEvaluator()

// EvaluateAll resolves every cell of a rows x cols grid with the default
// evaluator
func EvaluateAll(sheet Snapshot, rows, cols int) map[string]Value {
	return defaultEvaluator.EvaluateAll(sheet, rows, cols)
}

// EvaluateAll resolves every cell of a rows x cols grid in row-major order
// using a fresh context. the result also holds cells outside the grid that
// formulas pulled in.
func (e *Evaluator) EvaluateAll(sheet Snapshot, rows, cols int) map[string]Value {
	start := time.Now()
	ctx := NewContext()

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			id := cellid.IDFromCoords(row, col)
			if _, ok := ctx.Lookup(id); !ok {
				e.EvaluateCell(id, sheet, ctx)
			}
		}
	}

	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		var cycles, failures int
		for _, v := range ctx.memo {
			switch v.Error {
			case ErrorCodeCycle:
				cycles++
			case ErrorCodeEval:
				failures++
			}
		}
		e.logger.Debug("evaluated sheet",
			"rows", rows,
			"cols", cols,
			"cells", ctx.Len(),
			"cycles", cycles,
			"errors", failures,
			"duration", time.Since(start))
	}

	return ctx.memo
}

// frame is one pending cell on the work stack. a frame is entered once its
// cell is marked visiting and its dependencies have been pushed above it;
// when it surfaces again every dependency is resolved.
type frame struct {
	id      string
	entered bool
	formula *prepared
}

// prepared is a formula body ready to run, plus every cell it reads
type prepared struct {
	body   string
	refs   []string
	ranges []cellid.Range
	deps   []string
	err    error
}

// EvaluateCell resolves one cell, memoizing it and everything it depends on
// in ctx. resolution runs on an explicit work stack, so long reference
// chains are bounded by memory rather than the goroutine stack.
func (e *Evaluator) EvaluateCell(id string, sheet Snapshot, ctx *Context) Value {
	if canonical, err := cellid.Canonical(id); err == nil {
		id = canonical
	}
	if v, ok := ctx.Lookup(id); ok {
		return v
	}

	stack := []*frame{{id: id}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.entered {
			stack = stack[:len(stack)-1]
			// a nested resolution may already have marked this cell cyclic.
			// the cell stays visiting while it computes so RANGE calls that
			// reach it again see the cycle.
			if _, ok := ctx.Lookup(top.id); !ok {
				ctx.store(top.id, e.compute(top.id, top.formula, sheet, ctx))
			}
			ctx.unmarkVisiting(top.id)
			continue
		}

		if _, ok := ctx.Lookup(top.id); ok {
			stack = stack[:len(stack)-1]
			continue
		}

		if ctx.isVisiting(top.id) {
			// the chain looped back on a cell still being resolved
			stack = stack[:len(stack)-1]
			ctx.store(top.id, ErrorValue(ErrorCodeCycle))
			continue
		}

		content := Classify(sheet[top.id])
		if content.Kind != ContentFormula {
			stack = stack[:len(stack)-1]
			ctx.store(top.id, content.Value())
			continue
		}

		ctx.markVisiting(top.id)
		top.entered = true
		top.formula = prepare(content.Text)

		// push in reverse so dependencies resolve in order of appearance
		for i := len(top.formula.deps) - 1; i >= 0; i-- {
			dep := top.formula.deps[i]
			if _, ok := ctx.Lookup(dep); ok {
				continue
			}
			stack = append(stack, &frame{id: dep})
		}
	}

	v, _ := ctx.Lookup(id)
	return v
}

// prepare preprocesses a formula body and lists the cells it reads: bare
// references first, then members of range tokens and literal RANGE
// arguments, each once
func prepare(body string) *prepared {
	pre := formula.Preprocess(body)
	p := &prepared{
		body: pre.Body,
		refs: pre.Refs,
	}

	seen := make(map[string]struct{}, len(pre.Refs))
	p.deps = make([]string, 0, len(pre.Refs))
	for _, ref := range pre.Refs {
		seen[ref] = struct{}{}
		p.deps = append(p.deps, ref)
	}

	for _, text := range pre.Ranges {
		r, err := cellid.ParseRange(text)
		if err != nil {
			// malformed ranges expand to nothing
			continue
		}
		if r.Size() > MaxRangeCells {
			p.err = fmt.Errorf("%s: %w", text, errRangeTooLarge)
			p.deps = p.deps[:0]
			return p
		}
		p.ranges = append(p.ranges, r)
		for member := range r.Cells() {
			if _, ok := seen[member]; ok {
				continue
			}
			seen[member] = struct{}{}
			p.deps = append(p.deps, member)
		}
	}

	return p
}

// compute runs a formula whose dependencies are all memoized
func (e *Evaluator) compute(id string, p *prepared, sheet Snapshot, ctx *Context) Value {
	if p.err != nil {
		e.logger.Debug("formula failed", "cell", id, "error", p.err)
		return ErrorValue(ErrorCodeEval)
	}

	vars := make(map[string]any, len(p.refs))
	for _, ref := range p.refs {
		v, _ := ctx.Lookup(ref)
		if v.Error == ErrorCodeCycle {
			return v
		}
		vars[ref] = v.variable()
	}
	for _, r := range p.ranges {
		for member := range r.Cells() {
			if v, _ := ctx.Lookup(member); v.Error == ErrorCodeCycle {
				return v
			}
		}
	}

	cyclic := false
	funcs := formula.Aggregates()
	funcs[formula.RangeFunc] = func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes one argument, got %d", formula.RangeFunc, len(args))
		}
		text, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s takes a range string, got %T", formula.RangeFunc, args[0])
		}

		r, err := cellid.ParseRange(text)
		if err != nil {
			return []float64{}, nil
		}
		if r.Size() > MaxRangeCells {
			return nil, fmt.Errorf("%s: %w", text, errRangeTooLarge)
		}

		out := make([]float64, 0, min(r.Size(), 1024))
		for member := range r.Cells() {
			// ranges known before the run are memoized already. a range
			// built at run time resolves here, nested inside this call.
			v, ok := ctx.Lookup(member)
			if !ok {
				if ctx.depth >= MaxRangeDepth {
					return nil, fmt.Errorf("%s: %w", text, errRangeTooDeep)
				}
				ctx.depth++
				v = e.EvaluateCell(member, sheet, ctx)
				ctx.depth--
			}
			if v.Error == ErrorCodeCycle {
				cyclic = true
			}
			out = append(out, v.numeric())
		}
		return out, nil
	}

	out, err := e.grammar.Evaluate(p.body, formula.Env{Vars: vars, Funcs: funcs})
	if cyclic {
		return ErrorValue(ErrorCodeCycle)
	}
	if err != nil {
		e.logger.Debug("formula failed", "cell", id, "error", err)
		return ErrorValue(ErrorCodeEval)
	}
	return resultValue(out)
}

// resultValue keeps numeric and string grammar results. any other shape
// (booleans, arrays, nil) is absent without an error.
func resultValue(out any) Value {
	if s, ok := out.(string); ok {
		return StringValue(s)
	}
	if n, ok := formula.AsNumber(out); ok {
		return NumberValue(n)
	}
	return EmptyValue()
}
