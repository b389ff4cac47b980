package formula

import (
	"math"

	"github.com/expr-lang/expr"
)

// arithmetic operators are overloaded so operands coerce through ToNumber
// the way aggregate arguments do: text reads as 0 and numeric-looking text
// as its number. expr alone rejects mixing strings and numbers and only
// takes integers for "%". "+" on two strings still concatenates.

var (
	anyOperands = []any{
		new(func(any, any) float64),
	}
	// the string pair must come first so it is picked over any/any
	plusOperands = []any{
		new(func(string, string) string),
		new(func(any, any) float64),
	}
)

type operator struct {
	symbols []string
	name    string
	fn      Func
	types   []any
}

var operators = []operator{
	{[]string{"+"}, "_add", add, plusOperands},
	{[]string{"-"}, "_sub", numeric(func(a, b float64) float64 { return a - b }), anyOperands},
	{[]string{"*"}, "_mul", numeric(func(a, b float64) float64 { return a * b }), anyOperands},
	{[]string{"/"}, "_div", numeric(func(a, b float64) float64 { return a / b }), anyOperands},
	{[]string{"%"}, "_mod", numeric(math.Mod), anyOperands},
	{[]string{"^", "**"}, "_pow", numeric(math.Pow), anyOperands},
}

// arithmeticOptions are added to every compile
var arithmeticOptions = func() []expr.Option {
	var options []expr.Option
	for _, op := range operators {
		options = append(options, expr.Function(op.name, op.fn, op.types...))
		for _, symbol := range op.symbols {
			options = append(options, expr.Operator(symbol, op.name))
		}
	}
	return options
}()

func numeric(apply func(a, b float64) float64) Func {
	return func(args ...any) (any, error) {
		return apply(ToNumber(args[0]), ToNumber(args[1])), nil
	}
}

func add(args ...any) (any, error) {
	if l, ok := args[0].(string); ok {
		if r, ok := args[1].(string); ok {
			return l + r, nil
		}
	}
	return ToNumber(args[0]) + ToNumber(args[1]), nil
}
