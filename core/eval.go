package mal

import "fmt"

// DefaultMaxDepth is the nesting limit used by Eval and by sessions that
// do not set one.
const DefaultMaxDepth = 10000

// Evaluator evaluates forms against an environment chain.
type Evaluator struct {
	// MaxDepth bounds nested (non-tail) evaluations; past it Eval fails
	// with DepthExceeded. Zero means unlimited, in which case deep non-tail
	// recursion can overflow the goroutine stack, which kills the process.
	MaxDepth int

	depth int
	steps int
}

// Eval evaluates ast in env with a fresh Evaluator limited to DefaultMaxDepth.
func Eval(ast Value, env *Env) (Value, error) {
	return (&Evaluator{MaxDepth: DefaultMaxDepth}).Eval(ast, env)
}

// Steps reports how many trampoline iterations ran since the last ResetSteps.
func (ev *Evaluator) Steps() int { return ev.steps }

func (ev *Evaluator) ResetSteps() { ev.steps = 0 }

// Depth reports the current nesting of Eval calls.
func (ev *Evaluator) Depth() int { return ev.depth }

func (ev *Evaluator) enter() error {
	ev.depth++
	if ev.MaxDepth > 0 && ev.depth > ev.MaxDepth {
		ev.depth--
		return errorf(DepthExceeded, "evaluation depth limit %d exceeded", ev.MaxDepth)
	}
	return nil
}

func (ev *Evaluator) leave() { ev.depth-- }

// EvalAST evaluates the parts of ast without treating any head as a special
// form: symbols are looked up, sequences and map values are evaluated element
// by element, everything else evaluates to itself.
func (ev *Evaluator) EvalAST(ast Value, env *Env) (Value, error) {
	switch ast.Kind {
	case ValSymbol:
		if scope := env.Find(ast.Str); scope != nil {
			val, _ := scope.Get(ast.Str)
			return val, nil
		}
		return Value{}, errorf(UnboundSymbol, "symbol %s not found", ast.Str)
	case ValList, ValVector:
		elems := ast.Elems()
		out := make([]Value, len(elems))
		for i, elem := range elems {
			val, err := ev.Eval(elem, env)
			if err != nil {
				return Value{}, err
			}
			out[i] = val
		}
		if ast.Kind == ValVector {
			return VectorVal(out), nil
		}
		return ListVal(out), nil
	case ValHashMap:
		m := &HashMap{keys: ast.Map.Keys(), vals: make([]Value, ast.Map.Len())}
		for i, v := range ast.Map.vals {
			val, err := ev.Eval(v, env)
			if err != nil {
				return Value{}, err
			}
			m.vals[i] = val
		}
		return HashMapVal(m), nil
	default:
		return ast, nil
	}
}

// Eval is the trampoline. Forms in tail position (let*, do, if, eval and
// closure application) rebind ast/env and loop instead of recursing, so Go
// stack depth does not grow with tail recursion in the program.
func (ev *Evaluator) Eval(ast Value, env *Env) (Value, error) {
	if err := ev.enter(); err != nil {
		return Value{}, err
	}
	defer ev.leave()

	for {
		ev.steps++
		if ast.Kind != ValList {
			return ev.EvalAST(ast, env)
		}
		list := ast.Elems()
		if len(list) == 0 {
			return ast, nil
		}

		if head := list[0]; head.Kind == ValSymbol {
			switch head.Str {
			case "def!":
				return ev.evalDef(list, env)
			case "let*":
				next, letEnv, err := ev.evalLet(list, env)
				if err != nil {
					return Value{}, err
				}
				ast, env = next, letEnv
				continue
			case "do":
				next, err := ev.evalDo(list, env)
				if err != nil {
					return Value{}, err
				}
				ast = next
				continue
			case "if":
				next, err := ev.evalIf(list, env)
				if err != nil {
					return Value{}, err
				}
				ast = next
				continue
			case "fn*":
				return evalFn(list, env)
			case "eval":
				if len(list) != 2 {
					return Value{}, errorf(ArityError, "eval: expected 1 arg, got %d", len(list)-1)
				}
				next, err := ev.Eval(list[1], env)
				if err != nil {
					return Value{}, err
				}
				if env.outer != nil {
					env = env.outer
				}
				ast = next
				continue
			}
		}

		evald, err := ev.EvalAST(ast, env)
		if err != nil {
			return Value{}, err
		}
		if evald.Kind != ValList || len(evald.Elems()) == 0 {
			return Value{}, errorf(MalformedCall, "expected function and args in a list, got %s", evald.KindName())
		}
		call := evald.Elems()
		if call[0].Kind != ValFunc {
			return Value{}, errorf(NotCallable, "cannot call %s %s: not a function", call[0].KindName(), call[0].String())
		}
		fn := call[0].Fn
		if fn.Builtin != nil {
			return fn.Builtin(call[1:])
		}
		callEnv, err := bindParams(fn, call[1:])
		if err != nil {
			return Value{}, err
		}
		ast, env = fn.Body, callEnv
	}
}

// Apply calls fn with already evaluated arguments.
func (ev *Evaluator) Apply(fn *FuncValue, args []Value) (Value, error) {
	if fn.Builtin != nil {
		return fn.Builtin(args)
	}
	callEnv, err := bindParams(fn, args)
	if err != nil {
		return Value{}, err
	}
	return ev.Eval(fn.Body, callEnv)
}

// evalDef: (def! name expr)
func (ev *Evaluator) evalDef(list []Value, env *Env) (Value, error) {
	if len(list) != 3 {
		return Value{}, errorf(ArityError, "def!: expected 2 args (name expr), got %d", len(list)-1)
	}
	if list[1].Kind != ValSymbol {
		return Value{}, errorf(BindingError, "def!: name must be a symbol, got %s", list[1].KindName())
	}
	val, err := ev.Eval(list[2], env)
	if err != nil {
		return Value{}, err
	}
	if err := env.Set(list[1], val); err != nil {
		return Value{}, err
	}
	return val, nil
}

// evalLet: (let* (name expr ...) body). Each binding sees the ones before it.
// Returns the body and the new scope to continue with.
func (ev *Evaluator) evalLet(list []Value, env *Env) (Value, *Env, error) {
	if len(list) != 3 {
		return Value{}, nil, errorf(ArityError, "let*: expected bindings and body, got %d args", len(list)-1)
	}
	if !list[1].IsSeq() {
		return Value{}, nil, errorf(ShapeError, "let*: bindings must be a list or vector, got %s", list[1].KindName())
	}
	bindings := list[1].Elems()
	if len(bindings)%2 != 0 {
		return Value{}, nil, errorf(ArityError, "let*: even number of binding elements expected, got %d", len(bindings))
	}
	letEnv := Detach(env)
	for i := 0; i < len(bindings); i += 2 {
		val, err := ev.Eval(bindings[i+1], letEnv)
		if err != nil {
			return Value{}, nil, err
		}
		if err := letEnv.Set(bindings[i], val); err != nil {
			return Value{}, nil, err
		}
	}
	return list[2], letEnv, nil
}

// evalDo: (do expr ... last). Everything but last is evaluated for effect.
func (ev *Evaluator) evalDo(list []Value, env *Env) (Value, error) {
	if len(list) < 2 {
		return Value{}, errorf(ArityError, "do: expected at least one expression")
	}
	for _, expr := range list[1 : len(list)-1] {
		if _, err := ev.Eval(expr, env); err != nil {
			return Value{}, err
		}
	}
	return list[len(list)-1], nil
}

// evalIf: (if cond then else?). A missing else branch yields nil.
func (ev *Evaluator) evalIf(list []Value, env *Env) (Value, error) {
	if len(list) < 3 {
		return Value{}, errorf(ArityError, "if: expected at least 2 args (cond then), got %d", len(list)-1)
	}
	cond, err := ev.Eval(list[1], env)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return list[2], nil
	}
	if len(list) >= 4 {
		return list[3], nil
	}
	return NilVal(), nil
}

// evalFn: (fn* (params...) body) captures env by reference.
func evalFn(list []Value, env *Env) (Value, error) {
	if len(list) != 3 {
		return Value{}, errorf(ArityError, "fn*: expected params and body, got %d args", len(list)-1)
	}
	params, rest, err := parseParams(list[1])
	if err != nil {
		return Value{}, err
	}
	return FuncVal(&FuncValue{
		Params:    params,
		RestParam: rest,
		Body:      list[2],
		Env:       env,
	}), nil
}

func parseParams(v Value) ([]string, string, error) {
	if !v.IsSeq() {
		return nil, "", errorf(ShapeError, "fn*: params must be a list or vector, got %s", v.KindName())
	}
	elems := v.Elems()
	params := make([]string, 0, len(elems))
	for i, p := range elems {
		if p.Kind != ValSymbol {
			return nil, "", errorf(ShapeError, "fn*: param names must be symbols, got %s", p.KindName())
		}
		if p.Str == "&" {
			if i != len(elems)-2 || elems[i+1].Kind != ValSymbol {
				return nil, "", errorf(ShapeError, "fn*: & must be followed by exactly one symbol")
			}
			return params, elems[i+1].Str, nil
		}
		params = append(params, p.Str)
	}
	return params, "", nil
}

// bindParams opens the call scope for fn: outer is the defining scope.
func bindParams(fn *FuncValue, args []Value) (*Env, error) {
	if fn.RestParam == "" && len(args) != len(fn.Params) {
		return nil, errorf(ArityError, "fn: expected %d args, got %d", len(fn.Params), len(args))
	}
	if fn.RestParam != "" && len(args) < len(fn.Params) {
		return nil, errorf(ArityError, "fn: expected at least %d args, got %d", len(fn.Params), len(args))
	}
	env := Detach(fn.Env)
	for i, param := range fn.Params {
		env.Bind(param, args[i])
	}
	if fn.RestParam != "" {
		rest := make([]Value, len(args)-len(fn.Params))
		copy(rest, args[len(fn.Params):])
		env.Bind(fn.RestParam, ListVal(rest))
	}
	return env, nil
}

// EvalString reads one form from input and evaluates it in env.
func (ev *Evaluator) EvalString(input string, env *Env) (Value, error) {
	ast, err := Read(input)
	if err != nil {
		return Value{}, fmt.Errorf("parse error: %w", err)
	}
	return ev.Eval(ast, env)
}
