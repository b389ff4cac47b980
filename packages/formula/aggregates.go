package formula

import (
	"math"
	"reflect"
)

// Aggregates returns the aggregate functions available to every formula.
// the map is fresh on each call so callers may add to it.
func Aggregates() map[string]Func {
	return map[string]Func{
		"SUM":   Sum,
		"AVG":   Avg,
		"MIN":   Min,
		"MAX":   Max,
		"COUNT": Count,
	}
}

// Sum adds every flattened argument
func Sum(args ...any) (any, error) {
	sum := 0.0
	for _, n := range flatten(args) {
		sum += n
	}
	return sum, nil
}

// Avg is the arithmetic mean of every flattened argument, 0 when there
// are none
func Avg(args ...any) (any, error) {
	values := flatten(args)
	if len(values) == 0 {
		return 0.0, nil
	}

	sum := 0.0
	for _, n := range values {
		sum += n
	}
	return sum / float64(len(values)), nil
}

// Min is the smallest flattened argument, 0 when there are none
func Min(args ...any) (any, error) {
	values := flatten(args)
	if len(values) == 0 {
		return 0.0, nil
	}

	min := math.Inf(1)
	for _, n := range values {
		if n < min {
			min = n
		}
	}
	return min, nil
}

// Max is the largest flattened argument, 0 when there are none
func Max(args ...any) (any, error) {
	values := flatten(args)
	if len(values) == 0 {
		return 0.0, nil
	}

	max := math.Inf(-1)
	for _, n := range values {
		if n > max {
			max = n
		}
	}
	return max, nil
}

// Count counts every flattened argument, numeric or not
func Count(args ...any) (any, error) {
	return float64(len(flatten(args))), nil
}

// flatten expands sequence arguments one level and coerces every entry
// with ToNumber
func flatten(args []any) []float64 {
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case []float64:
			out = append(out, v...)
		case []any:
			for _, item := range v {
				out = append(out, ToNumber(item))
			}
		default:
			// other slice shapes come from array literals in the grammar
			rv := reflect.ValueOf(arg)
			if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
				for i := 0; i < rv.Len(); i++ {
					out = append(out, ToNumber(rv.Index(i).Interface()))
				}
				continue
			}
			out = append(out, ToNumber(arg))
		}
	}
	return out
}
