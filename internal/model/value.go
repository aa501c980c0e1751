package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what a Value holds
type Kind int

const (
	KindMissing Kind = iota // null, absent, or failed coercion
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "missing"
	}
}

// Value is a single table cell. The zero Value is missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	lit  string // exact integer literal, when decoded from JSON text
	b    bool
	t    time.Time
}

// Missing returns the missing value
func Missing() Value { return Value{} }

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a number. NaN and infinities are treated as missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue wraps a timestamp. The zero time is treated as missing.
func TimeValue(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, t: t}
}

// ValueOf converts a decoded JSON scalar into a Value.
// Nested objects and arrays are kept as their compact JSON text.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case json.Number:
		f, err := x.Float64()
		if isIntegerLiteral(x.String()) {
			return Value{kind: KindNumber, num: f, lit: x.String()}
		}
		if err != nil {
			return StringValue(x.String())
		}
		return NumberValue(f)
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case bool:
		return BoolValue(x)
	case time.Time:
		return TimeValue(x)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return StringValue(fmt.Sprint(x))
		}
		return StringValue(string(raw))
	}
}

// Kind returns the kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell holds no value
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the raw string and whether the value is a string
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Float returns the number and whether the value is numeric
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Time returns the timestamp and whether the value is a time
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// Bool returns the boolean and whether the value is a boolean
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// String renders the value for display. Integral numbers print without decimals.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.lit != "" {
			return v.lit
		}
		if v.num == math.Trunc(v.num) {
			return strconv.FormatFloat(v.num, 'f', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		if v.lit != "" && o.lit != "" {
			return v.lit == o.lit
		}
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// MarshalJSON encodes the value as its natural JSON type, missing as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if v.lit != "" {
			return []byte(v.lit), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// isIntegerLiteral reports whether s is an optionally signed run of digits
func isIntegerLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
