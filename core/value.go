package mal

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/nukata/goarith"
)

type ValueKind int

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValString
	ValSymbol
	ValList
	ValVector
	ValHashMap
	ValFunc
)

// Builtin is a primitive implemented in Go, called with evaluated arguments.
type Builtin func(args []Value) (Value, error)

// FuncValue is either a user closure (Params, Body, Env) or a primitive (Builtin).
type FuncValue struct {
	Name      string
	Params    []string
	RestParam string
	Body      Value
	Env       *Env
	Builtin   Builtin
}

// Value is the single representation shared by code and data.
// List, Vector and HashMap contents are never mutated after construction.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Num   goarith.Number
	Str   string
	Items *[]Value
	Map   *HashMap
	Fn    *FuncValue
}

func NilVal() Value            { return Value{Kind: ValNil} }
func BoolVal(b bool) Value     { return Value{Kind: ValBool, Bool: b} }
func StringVal(s string) Value { return Value{Kind: ValString, Str: s} }
func SymbolVal(s string) Value { return Value{Kind: ValSymbol, Str: s} }
func FuncVal(fn *FuncValue) Value {
	return Value{Kind: ValFunc, Fn: fn}
}
func NumberVal(n goarith.Number) Value {
	return Value{Kind: ValNumber, Num: n}
}
func IntVal(n int64) Value {
	return NumberVal(goarith.AsNumber(big.NewInt(n)))
}
func FloatVal(f float64) Value {
	return NumberVal(goarith.AsNumber(f))
}
func ListVal(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: ValList, Items: &elems}
}
func VectorVal(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: ValVector, Items: &elems}
}
func HashMapVal(m *HashMap) Value {
	if m == nil {
		m = &HashMap{}
	}
	return Value{Kind: ValHashMap, Map: m}
}

// PrimitiveVal wraps a Go function as a callable value.
func PrimitiveVal(name string, fn Builtin) Value {
	return FuncVal(&FuncValue{Name: name, Builtin: fn})
}

// Elems returns the elements of a List or Vector, nil otherwise.
func (v Value) Elems() []Value {
	if (v.Kind == ValList || v.Kind == ValVector) && v.Items != nil {
		return *v.Items
	}
	return nil
}

// IsSeq reports whether v is a List or a Vector.
func (v Value) IsSeq() bool {
	return v.Kind == ValList || v.Kind == ValVector
}

// Truthy: nil and false are falsy, everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValNil:
		return false
	case ValBool:
		return v.Bool
	default:
		return true
	}
}

func (v Value) String() string {
	return PrStr(v, true)
}

func (v Value) KindName() string {
	switch v.Kind {
	case ValNil:
		return "Nil"
	case ValBool:
		return "Bool"
	case ValNumber:
		return "Number"
	case ValString:
		return "String"
	case ValSymbol:
		return "Symbol"
	case ValList:
		return "List"
	case ValVector:
		return "Vector"
	case ValHashMap:
		return "HashMap"
	case ValFunc:
		return "Func"
	default:
		return "Unknown"
	}
}

// ValuesEqual compares two Values for deep equality. Lists and vectors with
// the same elements compare equal; functions compare by identity.
func ValuesEqual(a, b Value) bool {
	if a.IsSeq() && b.IsSeq() {
		as, bs := a.Elems(), b.Elems()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !ValuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Num.Cmp(b.Num) == 0
	case ValString, ValSymbol:
		return a.Str == b.Str
	case ValHashMap:
		return a.Map.equal(b.Map)
	case ValFunc:
		return a.Fn == b.Fn
	}
	return false
}

// HashMap is an insertion-ordered mapping with unique keys.
type HashMap struct {
	keys []Value
	vals []Value
}

// NewHashMap builds a map from alternating key/value elements. A repeated
// key keeps its first position and takes the last value.
func NewHashMap(kvs []Value) (*HashMap, error) {
	if len(kvs)%2 != 0 {
		return nil, fmt.Errorf("hash-map: expected even number of elements, got %d", len(kvs))
	}
	m := &HashMap{}
	for i := 0; i < len(kvs); i += 2 {
		m.put(kvs[i], kvs[i+1])
	}
	return m, nil
}

func (m *HashMap) put(k, v Value) {
	if i := m.index(k); i >= 0 {
		m.vals[i] = v
		return
	}
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *HashMap) index(k Value) int {
	for i, key := range m.keys {
		if ValuesEqual(key, k) {
			return i
		}
	}
	return -1
}

// Get returns the value bound to k.
func (m *HashMap) Get(k Value) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	if i := m.index(k); i >= 0 {
		return m.vals[i], true
	}
	return Value{}, false
}

func (m *HashMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *HashMap) Keys() []Value {
	if m == nil {
		return nil
	}
	return append([]Value(nil), m.keys...)
}

// Vals returns the values in key insertion order.
func (m *HashMap) Vals() []Value {
	if m == nil {
		return nil
	}
	return append([]Value(nil), m.vals...)
}

// Assoc returns a new map with the extra pairs applied; m is unchanged.
func (m *HashMap) Assoc(kvs []Value) (*HashMap, error) {
	if len(kvs)%2 != 0 {
		return nil, fmt.Errorf("assoc: expected even number of elements, got %d", len(kvs))
	}
	out := &HashMap{keys: m.Keys(), vals: m.Vals()}
	for i := 0; i < len(kvs); i += 2 {
		out.put(kvs[i], kvs[i+1])
	}
	return out, nil
}

func (m *HashMap) equal(o *HashMap) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.keys {
		ov, ok := o.Get(k)
		if !ok || !ValuesEqual(m.vals[i], ov) {
			return false
		}
	}
	return true
}

// PrStr prints v. With readable set, strings are quoted and escaped so the
// output reads back as the same value.
func PrStr(v Value, readable bool) string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return fmt.Sprint(v.Num)
	case ValString:
		if readable {
			return quoteString(v.Str)
		}
		return v.Str
	case ValSymbol:
		return v.Str
	case ValList:
		return "(" + joinValues(v.Elems(), readable) + ")"
	case ValVector:
		return "[" + joinValues(v.Elems(), readable) + "]"
	case ValHashMap:
		parts := make([]string, 0, v.Map.Len()*2)
		for i, k := range v.Map.keys {
			parts = append(parts, PrStr(k, readable), PrStr(v.Map.vals[i], readable))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case ValFunc:
		if v.Fn.Builtin != nil {
			return fmt.Sprintf("<primitive %s>", v.Fn.Name)
		}
		ps := strings.Join(v.Fn.Params, " ")
		if v.Fn.RestParam != "" {
			if ps != "" {
				ps += " "
			}
			ps += "& " + v.Fn.RestParam
		}
		return fmt.Sprintf("<fn (%s)>", ps)
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

func joinValues(elems []Value, readable bool) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = PrStr(e, readable)
	}
	return strings.Join(parts, " ")
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, `"`, `\"`)

func quoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}
