package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// Value is a JSON value: null, bool, number, string, list, or map. Execution
// contexts and parsed-document payloads are built from it instead of untyped
// maps-of-maps, so illegal shapes fail at decode time rather than deep inside
// a step handler.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

var NullValue = Value{kind: KindNull}

func BoolValue(b bool) Value          { return Value{kind: KindBool, b: b} }
func NumberValue(n float64) Value     { return Value{kind: KindNumber, n: n} }
func StringValue(s string) Value      { return Value{kind: KindString, s: s} }
func ListValue(vs []Value) Value      { return Value{kind: KindList, list: vs} }
func MapValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsList() ([]Value, bool)  { return v.list, v.kind == KindList }
func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// Number returns the value as a float64, parsing numeric strings. The second
// return reports whether a number could be produced.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Text renders the value as a string for template substitution and transform
// input. Strings render bare, numbers without a trailing ".0", and composite
// values as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// Lookup resolves a dotted path against the value. Map keys are matched by
// name and list elements by decimal index.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m[seg]
			if !ok {
				return NullValue, false
			}
			cur = next
		case KindList:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.list) {
				return NullValue, false
			}
			cur = cur.list[idx]
		default:
			return NullValue, false
		}
	}
	return cur, true
}

// Equal reports structural equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		// Numbers stored as strings still compare against numbers.
		if a, okA := v.Number(); okA {
			if b, okB := other.Number(); okB {
				return a == b
			}
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := other.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// FromAny converts a decoded encoding/json value into a Value.
func FromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return NullValue
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return StringValue(t.String())
		}
		return NumberValue(n)
	case string:
		return StringValue(t)
	case []interface{}:
		list := make([]Value, len(t))
		for i, el := range t {
			list[i] = FromAny(el)
		}
		return ListValue(list)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[k] = FromAny(el)
		}
		return MapValue(m)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// ValueFromJSON decodes raw JSON into a Value.
func ValueFromJSON(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return NullValue, nil
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return NullValue, fmt.Errorf("decoding value: %w", err)
	}
	return FromAny(decoded), nil
}

// MarshalJSON renders the value back to JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// UnmarshalJSON decodes any JSON value.
func (v *Value) UnmarshalJSON(raw []byte) error {
	decoded, err := ValueFromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
