package mal

import (
	"fmt"
	"io"
	"strings"

	"github.com/nukata/goarith"
)

// NewRootEnv creates the global scope with the core primitives bound.
// Printing primitives write to out.
func NewRootEnv(out io.Writer) *Env {
	env := NewEnv()
	for name, fn := range CoreBuiltins(out) {
		env.Bind(name, PrimitiveVal(name, fn))
	}
	return env
}

// CoreBuiltins returns the primitive functions of the root environment.
func CoreBuiltins(out io.Writer) map[string]Builtin {
	return map[string]Builtin{
		// Arithmetic
		"+": builtinAdd,
		"-": builtinSub,
		"*": builtinMul,
		// Comparison
		"=":  builtinEq,
		"<":  compareWith("<", func(c int) bool { return c < 0 }),
		"<=": compareWith("<=", func(c int) bool { return c <= 0 }),
		">":  compareWith(">", func(c int) bool { return c > 0 }),
		">=": compareWith(">=", func(c int) bool { return c >= 0 }),
		// Sequences
		"list":    builtinList,
		"list?":   kindPredicate("list?", ValList),
		"vector":  builtinVector,
		"vector?": kindPredicate("vector?", ValVector),
		"count":   builtinCount,
		"empty?":  builtinEmpty,
		"first":   builtinFirst,
		"rest":    builtinRest,
		"nth":     builtinNth,
		"cons":    builtinCons,
		"concat":  builtinConcat,
		// Maps
		"hash-map": builtinHashMap,
		"map?":     kindPredicate("map?", ValHashMap),
		"get":      builtinGet,
		"assoc":    builtinAssoc,
		"keys":     builtinKeys,
		"vals":     builtinVals,
		// Predicates
		"not":     builtinNot,
		"nil?":    kindPredicate("nil?", ValNil),
		"symbol?": kindPredicate("symbol?", ValSymbol),
		"string?": kindPredicate("string?", ValString),
		"number?": kindPredicate("number?", ValNumber),
		"fn?":     kindPredicate("fn?", ValFunc),
		// Strings and output
		"str":    builtinStr,
		"pr-str": builtinPrStr,
		"prn": func(args []Value) (Value, error) {
			fmt.Fprintln(out, joinValues(args, true))
			return NilVal(), nil
		},
		"println": func(args []Value) (Value, error) {
			fmt.Fprintln(out, joinValues(args, false))
			return NilVal(), nil
		},
	}
}

// --- Builtin implementations ---

func numbers(name string, args []Value) ([]goarith.Number, error) {
	nums := make([]goarith.Number, len(args))
	for i, a := range args {
		if a.Kind != ValNumber {
			return nil, fmt.Errorf("%s: expected Number, got %s", name, a.KindName())
		}
		nums[i] = a.Num
	}
	return nums, nil
}

func builtinAdd(args []Value) (Value, error) {
	nums, err := numbers("+", args)
	if err != nil {
		return Value{}, err
	}
	acc := IntVal(0).Num
	for _, n := range nums {
		acc = acc.Add(n)
	}
	return NumberVal(acc), nil
}

func builtinSub(args []Value) (Value, error) {
	nums, err := numbers("-", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Value{}, fmt.Errorf("-: expected at least 1 arg, got 0")
	}
	if len(nums) == 1 {
		return NumberVal(IntVal(0).Num.Sub(nums[0])), nil
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc = acc.Sub(n)
	}
	return NumberVal(acc), nil
}

func builtinMul(args []Value) (Value, error) {
	nums, err := numbers("*", args)
	if err != nil {
		return Value{}, err
	}
	acc := IntVal(1).Num
	for _, n := range nums {
		acc = acc.Mul(n)
	}
	return NumberVal(acc), nil
}

func builtinEq(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("=: expected 2 args, got %d", len(args))
	}
	return BoolVal(ValuesEqual(args[0], args[1])), nil
}

func compareWith(name string, ok func(int) bool) Builtin {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("%s: expected 2 args, got %d", name, len(args))
		}
		nums, err := numbers(name, args)
		if err != nil {
			return Value{}, err
		}
		return BoolVal(ok(nums[0].Cmp(nums[1]))), nil
	}
}

func kindPredicate(name string, kind ValueKind) Builtin {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("%s: expected 1 arg, got %d", name, len(args))
		}
		return BoolVal(args[0].Kind == kind), nil
	}
}

func builtinList(args []Value) (Value, error) {
	return ListVal(append([]Value(nil), args...)), nil
}

func builtinVector(args []Value) (Value, error) {
	return VectorVal(append([]Value(nil), args...)), nil
}

func seqArg(name string, v Value) ([]Value, error) {
	if v.Kind == ValNil {
		return nil, nil
	}
	if !v.IsSeq() {
		return nil, fmt.Errorf("%s: expected List or Vector, got %s", name, v.KindName())
	}
	return v.Elems(), nil
}

func builtinCount(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("count: expected 1 arg, got %d", len(args))
	}
	if args[0].Kind == ValHashMap {
		return IntVal(int64(args[0].Map.Len())), nil
	}
	elems, err := seqArg("count", args[0])
	if err != nil {
		return Value{}, err
	}
	return IntVal(int64(len(elems))), nil
}

func builtinEmpty(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("empty?: expected 1 arg, got %d", len(args))
	}
	elems, err := seqArg("empty?", args[0])
	if err != nil {
		return Value{}, err
	}
	return BoolVal(len(elems) == 0), nil
}

func builtinFirst(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("first: expected 1 arg, got %d", len(args))
	}
	elems, err := seqArg("first", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(elems) == 0 {
		return NilVal(), nil
	}
	return elems[0], nil
}

func builtinRest(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("rest: expected 1 arg, got %d", len(args))
	}
	elems, err := seqArg("rest", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(elems) == 0 {
		return ListVal(nil), nil
	}
	return ListVal(append([]Value(nil), elems[1:]...)), nil
}

func builtinNth(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("nth: expected 2 args, got %d", len(args))
	}
	elems, err := seqArg("nth", args[0])
	if err != nil {
		return Value{}, err
	}
	i, err := smallInt(args[1])
	if err != nil {
		return Value{}, fmt.Errorf("nth: %w", err)
	}
	if i >= len(elems) {
		return Value{}, fmt.Errorf("nth: index %d out of range for %d elements", i, len(elems))
	}
	return elems[i], nil
}

func builtinCons(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("cons: expected 2 args, got %d", len(args))
	}
	elems, err := seqArg("cons", args[1])
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, 0, len(elems)+1)
	out = append(out, args[0])
	return ListVal(append(out, elems...)), nil
}

func builtinConcat(args []Value) (Value, error) {
	var out []Value
	for _, a := range args {
		elems, err := seqArg("concat", a)
		if err != nil {
			return Value{}, err
		}
		out = append(out, elems...)
	}
	return ListVal(out), nil
}

func builtinHashMap(args []Value) (Value, error) {
	m, err := NewHashMap(args)
	if err != nil {
		return Value{}, err
	}
	return HashMapVal(m), nil
}

func mapArg(name string, v Value) (*HashMap, error) {
	if v.Kind == ValNil {
		return &HashMap{}, nil
	}
	if v.Kind != ValHashMap {
		return nil, fmt.Errorf("%s: expected HashMap, got %s", name, v.KindName())
	}
	return v.Map, nil
}

func builtinGet(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("get: expected 2 args, got %d", len(args))
	}
	m, err := mapArg("get", args[0])
	if err != nil {
		return Value{}, err
	}
	if val, ok := m.Get(args[1]); ok {
		return val, nil
	}
	return NilVal(), nil
}

func builtinAssoc(args []Value) (Value, error) {
	if len(args) < 1 {
		return Value{}, fmt.Errorf("assoc: expected a map, got 0 args")
	}
	m, err := mapArg("assoc", args[0])
	if err != nil {
		return Value{}, err
	}
	out, err := m.Assoc(args[1:])
	if err != nil {
		return Value{}, err
	}
	return HashMapVal(out), nil
}

func builtinKeys(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("keys: expected 1 arg, got %d", len(args))
	}
	m, err := mapArg("keys", args[0])
	if err != nil {
		return Value{}, err
	}
	return ListVal(m.Keys()), nil
}

func builtinVals(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("vals: expected 1 arg, got %d", len(args))
	}
	m, err := mapArg("vals", args[0])
	if err != nil {
		return Value{}, err
	}
	return ListVal(m.Vals()), nil
}

func builtinNot(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("not: expected 1 arg, got %d", len(args))
	}
	return BoolVal(!args[0].Truthy()), nil
}

func builtinStr(args []Value) (Value, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(PrStr(a, false))
	}
	return StringVal(sb.String()), nil
}

func builtinPrStr(args []Value) (Value, error) {
	return StringVal(joinValues(args, true)), nil
}
