package formula

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	// ErrParse wraps failures to compile a formula body
	ErrParse = errors.New("formula parse error")
	// ErrEval wraps failures while running a compiled formula
	ErrEval = errors.New("formula evaluation error")
)

// Func is a function callable from formulas
type Func func(args ...any) (any, error)

// Env is everything a formula body may name: variables (resolved cell
// references) and functions.
type Env struct {
	Vars  map[string]any
	Funcs map[string]Func
}

// Grammar parses and evaluates formula bodies. implementations must be safe
// for concurrent use.
type Grammar interface {
	Evaluate(body string, env Env) (any, error)
}

// ExprGrammar evaluates formulas with expr-lang/expr. builtins are
// disabled so only the functions in Env are callable.
type ExprGrammar struct {
	vmPool sync.Pool
}

var _ Grammar = (*ExprGrammar)(nil)

// NewExprGrammar creates a grammar backed by expr-lang/expr
func NewExprGrammar() *ExprGrammar {
	return &ExprGrammar{
		vmPool: sync.Pool{
			New: func() any {
				return new(vm.VM)
			},
		},
	}
}

// Evaluate compiles body against env and runs it
func (g *ExprGrammar) Evaluate(body string, env Env) (out any, err error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrParse)
	}

	vars := env.Vars
	if vars == nil {
		vars = map[string]any{}
	}

	options := make([]expr.Option, 0, len(env.Funcs)+len(arithmeticOptions)+2)
	options = append(options, expr.Env(vars), expr.DisableAllBuiltins())
	options = append(options, arithmeticOptions...)
	for name, fn := range env.Funcs {
		options = append(options, expr.Function(name, fn))
	}

	program, err := expr.Compile(body, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	// functions may panic on bad input; the vm reports most of those as
	// errors but keep a pass alive regardless
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrEval, r)
		}
	}()

	v := g.vmPool.Get().(*vm.VM)
	out, err = v.Run(program, vars)
	g.vmPool.Put(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEval, err)
	}
	return out, nil
}
