package mal

import "sort"

// Env is one scope in an environment chain. Scopes only point outward, so
// many closures and child scopes may share an outer scope.
type Env struct {
	data    map[string]Value
	outer   *Env
	version uint64
}

// NewEnv creates a root scope.
func NewEnv() *Env {
	return &Env{data: make(map[string]Value)}
}

// Detach opens a new scope whose outer link is parent.
func Detach(parent *Env) *Env {
	return &Env{data: make(map[string]Value), outer: parent}
}

// Outer returns the enclosing scope, nil for a root scope.
func (e *Env) Outer() *Env {
	return e.outer
}

// Set binds key in this scope only. key must be a symbol.
func (e *Env) Set(key, val Value) error {
	if key.Kind != ValSymbol {
		return errorf(BindingError, "cannot bind to %s %s: expected a symbol", key.KindName(), key.String())
	}
	e.data[key.Str] = val
	e.version++
	return nil
}

// Bind is Set for a name already known to be a symbol.
func (e *Env) Bind(name string, val Value) {
	e.data[name] = val
	e.version++
}

// Version counts the bindings written to this scope. It changes whenever
// Set or Bind runs here, and never for writes to other scopes.
func (e *Env) Version() uint64 {
	return e.version
}

// Find returns the nearest scope, starting with e, that binds name.
func (e *Env) Find(name string) *Env {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.data[name]; ok {
			return env
		}
	}
	return nil
}

// Get returns the value bound to name in this scope.
func (e *Env) Get(name string) (Value, bool) {
	val, ok := e.data[name]
	return val, ok
}

// Lookup walks the chain for name.
func (e *Env) Lookup(name string) (Value, bool) {
	if env := e.Find(name); env != nil {
		return env.Get(name)
	}
	return Value{}, false
}

// Names returns the names bound in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.data))
	for k := range e.data {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
