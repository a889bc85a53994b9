package mal

import (
	"fmt"
	"math"
)

// Trace records one top-level evaluation: the source form, its outcome and
// how many trampoline iterations it took.
type Trace struct {
	Source    string
	Result    Value
	Error     string // non-empty on error
	Steps     int
	Timestamp string // RFC 3339
}

// ToValue converts a Trace to a hash map for the traces primitive.
func (t *Trace) ToValue() Value {
	kvs := []Value{
		StringVal("source"), StringVal(t.Source),
		StringVal("steps"), IntVal(int64(t.Steps)),
		StringVal("timestamp"), StringVal(t.Timestamp),
	}
	if t.Error != "" {
		kvs = append(kvs, StringVal("result"), NilVal(), StringVal("error"), StringVal(t.Error))
	} else {
		kvs = append(kvs, StringVal("result"), t.Result, StringVal("error"), NilVal())
	}
	m, _ := NewHashMap(kvs)
	return HashMapVal(m)
}

// traceRing keeps the most recent traces up to max.
type traceRing struct {
	traces []Trace
	max    int
}

func (r *traceRing) add(t Trace) {
	r.traces = append(r.traces, t)
	if r.max > 0 && len(r.traces) > r.max {
		excess := len(r.traces) - r.max
		r.traces = r.traces[excess:]
	}
}

// last returns up to n of the newest traces, oldest first. n < 0 means all.
func (r *traceRing) last(n int) []Trace {
	if n < 0 || n > len(r.traces) {
		n = len(r.traces)
	}
	out := make([]Trace, n)
	copy(out, r.traces[len(r.traces)-n:])
	return out
}

func (r *traceRing) reset() { r.traces = nil }

// builtin: (traces) or (traces n)
func (r *traceRing) builtin(args []Value) (Value, error) {
	n := -1
	if len(args) == 1 {
		if args[0].Kind != ValNumber {
			return Value{}, fmt.Errorf("traces: expected Number arg, got %s", args[0].KindName())
		}
		limit, err := smallInt(args[0])
		if err != nil {
			return Value{}, fmt.Errorf("traces: %w", err)
		}
		n = limit
	} else if len(args) > 1 {
		return Value{}, fmt.Errorf("traces: expected 0 or 1 args, got %d", len(args))
	}
	traces := r.last(n)
	result := make([]Value, len(traces))
	for i := range traces {
		result[i] = traces[i].ToValue()
	}
	return ListVal(result), nil
}

// maxSmallInt bounds the indexes and counts primitives accept.
const maxSmallInt = math.MaxInt32

// smallInt converts a non-negative integral Number to int. Integral floats
// such as 2.0 are accepted. The value is located by binary search with Cmp,
// so every numeric representation is handled alike.
func smallInt(v Value) (int, error) {
	if v.Kind != ValNumber || v.Num.Cmp(IntVal(0).Num) < 0 {
		return 0, fmt.Errorf("expected a non-negative integer, got %s", PrStr(v, true))
	}
	if v.Num.Cmp(IntVal(maxSmallInt).Num) > 0 {
		return 0, fmt.Errorf("integer %s is larger than %d", PrStr(v, true), maxSmallInt)
	}
	lo, hi := 0, maxSmallInt
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch c := v.Num.Cmp(IntVal(int64(mid)).Num); {
		case c == 0:
			return mid, nil
		case c < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return 0, fmt.Errorf("expected a non-negative integer, got %s", PrStr(v, true))
}
