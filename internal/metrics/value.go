package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the scalar forms a metric value can take.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindText
)

// Value is a single metric reading: a number, a boolean, or a short text
// label. Numbers remember whether they were integral, so counts render
// without decimal places while rates keep their fractional form.
type Value struct {
	kind  Kind
	num   float64
	i     int64
	isInt bool
	b     bool
	s     string
}

// Float builds a fractional numeric value.
func Float(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Int builds an integral numeric value.
func Int(v int64) Value {
	return Value{kind: KindNumber, num: float64(v), i: v, isInt: true}
}

// Bool builds a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Text builds a text label value.
func Text(v string) Value {
	return Value{kind: KindText, s: v}
}

// FromAny converts a dynamically typed scalar into a Value. Unsupported
// types fall back to their default text rendering rather than failing,
// since the output is for prompt injection, not round-tripping.
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case int32:
		return Int(int64(t))
	case bool:
		return Bool(t)
	case string:
		return Text(t)
	case json.Number:
		return numberValue(t)
	case nil:
		return Text("")
	default:
		return Text(fmt.Sprintf("%v", t))
	}
}

// Kind reports which scalar form the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric value. Zero for non-numeric values.
func (v Value) Float() float64 {
	return v.num
}

// IsInt reports whether a numeric value is integral.
func (v Value) IsInt() bool {
	return v.isInt
}

// String renders the value in its natural text form: integers bare,
// fractional numbers with minimal digits, booleans as true/false.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// MarshalJSON emits the natural scalar form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if v.isInt {
			return []byte(strconv.FormatInt(v.i, 10)), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON accepts any JSON scalar. Objects and arrays degrade to
// their raw text, matching the formatter's unsupported-type fallback.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = valueFromRaw(data)
	return nil
}

// numberValue distinguishes integral from fractional JSON numbers by their
// literal text, so a file's 3 and 3.0 render differently downstream.
func numberValue(n json.Number) Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i)
		}
	}
	f, err := n.Float64()
	if err != nil {
		return Text(s)
	}
	return Float(f)
}

// valueFromRaw classifies one raw JSON value.
func valueFromRaw(raw []byte) Value {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "" || s == "null":
		return Text("")
	case s == "true":
		return Bool(true)
	case s == "false":
		return Bool(false)
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return Text(s)
		}
		return Text(str)
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
		return Text(s)
	default:
		return numberValue(json.Number(s))
	}
}
