package spreadsheet

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/vogtb/excel-clone/packages/formula"
)

// ErrorCode tags a cell whose value could not be resolved. both codes are
// cell-scoped; a pass always completes regardless of how many cells carry
// one.
type ErrorCode uint8

const (
	ErrorCodeNone  ErrorCode = 0
	ErrorCodeCycle ErrorCode = 1 // #CYCLE - reference chain loops back on a cell still being resolved
	ErrorCodeEval  ErrorCode = 2 // #ERROR - the formula failed to parse or evaluate
)

// ErrorMapper maps error codes to their display form
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeCycle: "#CYCLE",
	ErrorCodeEval:  "#ERROR",
}

func (c ErrorCode) String() string {
	return ErrorMapper[c]
}

// ValueKind represents the type of a resolved cell value
type ValueKind uint8

const (
	ValueKindEmpty  ValueKind = 0
	ValueKindNumber ValueKind = 1
	ValueKindString ValueKind = 2
)

// Value is the resolved output for one cell. when Error is set the value is
// absent and Kind is ValueKindEmpty.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Error  ErrorCode
}

func EmptyValue() Value {
	return Value{}
}

func NumberValue(n float64) Value {
	return Value{Kind: ValueKindNumber, Number: n}
}

func StringValue(s string) Value {
	return Value{Kind: ValueKindString, Text: s}
}

func ErrorValue(code ErrorCode) Value {
	return Value{Error: code}
}

// IsError reports whether the value carries an error tag
func (v Value) IsError() bool {
	return v.Error != ErrorCodeNone
}

// IsEmpty reports whether the value is absent without an error
func (v Value) IsEmpty() bool {
	return v.Kind == ValueKindEmpty && v.Error == ErrorCodeNone
}

// Interface returns the value as float64, string or nil. errors are nil.
func (v Value) Interface() any {
	if v.IsError() {
		return nil
	}
	switch v.Kind {
	case ValueKindNumber:
		return v.Number
	case ValueKindString:
		return v.Text
	default:
		return nil
	}
}

// String renders the value for display: numbers in their shortest form,
// strings verbatim, errors as their tag and empty values as "".
func (v Value) String() string {
	if v.IsError() {
		return v.Error.String()
	}
	switch v.Kind {
	case ValueKindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueKindString:
		return v.Text
	default:
		return ""
	}
}

type valueJSON struct {
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON encodes {"value": 5} or {"value": null, "error": "#CYCLE"}.
// non-finite numbers have no JSON form and are written as their string
// rendering.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Value: v.Interface(), Error: v.Error.String()}
	if n, ok := out.Value.(float64); ok && (math.IsInf(n, 0) || math.IsNaN(n)) {
		out.Value = v.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var in struct {
		Value any    `json:"value"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	for code, tag := range ErrorMapper {
		if in.Error == tag {
			*v = ErrorValue(code)
			return nil
		}
	}

	switch x := in.Value.(type) {
	case float64:
		*v = NumberValue(x)
	case string:
		*v = StringValue(x)
	default:
		*v = EmptyValue()
	}
	return nil
}

// numeric coerces the value for use inside an aggregate: numbers pass,
// numeric-looking strings parse, everything else is 0
func (v Value) numeric() float64 {
	if v.IsError() {
		return 0
	}
	switch v.Kind {
	case ValueKindNumber:
		return v.Number
	case ValueKindString:
		if n, ok := formula.ParseNumeric(v.Text); ok {
			return n
		}
	}
	return 0
}

// variable is the form a referenced cell takes inside a formula body.
// numbers and strings pass through, absent and failed cells read as 0.
func (v Value) variable() any {
	if v.IsError() {
		return 0.0
	}
	switch v.Kind {
	case ValueKindNumber:
		return v.Number
	case ValueKindString:
		return v.Text
	default:
		return 0.0
	}
}
