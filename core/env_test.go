package mal

import (
	"errors"
	"testing"
)

func TestEnvSetShadowsOuter(t *testing.T) {
	root := NewEnv()
	if err := root.Set(SymbolVal("a"), IntVal(1)); err != nil {
		t.Fatal(err)
	}
	child := Detach(root)
	if err := child.Set(SymbolVal("a"), IntVal(2)); err != nil {
		t.Fatal(err)
	}

	if v, _ := child.Lookup("a"); !ValuesEqual(v, IntVal(2)) {
		t.Fatalf("expected child binding 2, got %s", v)
	}
	if v, _ := root.Lookup("a"); !ValuesEqual(v, IntVal(1)) {
		t.Fatalf("set must never write to an outer scope, root has %s", v)
	}
}

func TestEnvFind(t *testing.T) {
	root := NewEnv()
	root.Bind("a", IntVal(1))
	mid := Detach(root)
	mid.Bind("b", IntVal(2))
	leaf := Detach(mid)

	if got := leaf.Find("a"); got != root {
		t.Fatal("expected a to resolve to the root scope")
	}
	if got := leaf.Find("b"); got != mid {
		t.Fatal("expected b to resolve to the middle scope")
	}
	if got := leaf.Find("c"); got != nil {
		t.Fatal("expected nil for an unbound name")
	}
	leaf.Bind("a", IntVal(3))
	if got := leaf.Find("a"); got != leaf {
		t.Fatal("expected find to start at the scope itself")
	}
}

func TestEnvGetIsLocal(t *testing.T) {
	root := NewEnv()
	root.Bind("a", IntVal(1))
	child := Detach(root)
	if _, ok := child.Get("a"); ok {
		t.Fatal("get must only look at the local scope")
	}
	if v, ok := root.Get("a"); !ok || !ValuesEqual(v, IntVal(1)) {
		t.Fatalf("expected local get to succeed, got %s %v", v, ok)
	}
}

func TestEnvSetRejectsNonSymbol(t *testing.T) {
	env := NewEnv()
	for _, key := range []Value{StringVal("a"), IntVal(1), NilVal(), ListVal(nil)} {
		err := env.Set(key, IntVal(1))
		var ee *EvalError
		if !errors.As(err, &ee) || ee.Kind != BindingError {
			t.Fatalf("set %s: expected BindingError, got %v", key, err)
		}
	}
	if len(env.Names()) != 0 {
		t.Fatalf("failed set must not bind, got %v", env.Names())
	}
}

func TestEnvOuterAndNames(t *testing.T) {
	root := NewEnv()
	if root.Outer() != nil {
		t.Fatal("root scope has no outer")
	}
	child := Detach(root)
	if child.Outer() != root {
		t.Fatal("detach must link to parent")
	}
	root.Bind("b", NilVal())
	root.Bind("a", NilVal())
	names := root.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted names [a b], got %v", names)
	}
}

func TestEnvSharedOuter(t *testing.T) {
	root := NewEnv()
	left, right := Detach(root), Detach(root)
	root.Bind("shared", IntVal(1))
	for _, env := range []*Env{left, right} {
		if v, ok := env.Lookup("shared"); !ok || !ValuesEqual(v, IntVal(1)) {
			t.Fatal("children must see bindings added to a shared outer scope")
		}
	}
}

func TestEnvVersionTracksLocalWrites(t *testing.T) {
	root := NewEnv()
	child := Detach(root)
	v := root.Version()

	child.Bind("x", IntVal(1))
	if root.Version() != v {
		t.Fatal("writes to a child scope must not change the root version")
	}
	root.Set(SymbolVal("y"), IntVal(2))
	if root.Version() == v {
		t.Fatal("set must change the version")
	}
	v = root.Version()
	root.Set(StringVal("bad"), IntVal(3))
	if root.Version() != v {
		t.Fatal("a rejected set must not change the version")
	}
}
