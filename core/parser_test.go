package mal

import (
	"strings"
	"testing"
)

func TestReadAtoms(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"42", IntVal(42)},
		{"-3", IntVal(-3)},
		{"+5", IntVal(5)},
		{"2.5", FloatVal(2.5)},
		{"-.5", FloatVal(-0.5)},
		{"nil", NilVal()},
		{"true", BoolVal(true)},
		{"false", BoolVal(false)},
		{"abc", SymbolVal("abc")},
		{"-", SymbolVal("-")},
		{"+", SymbolVal("+")},
		{"->x", SymbolVal("->x")},
		{"def!", SymbolVal("def!")},
		{`"a\nb\t\"c\"\\"`, StringVal("a\nb\t\"c\"\\")},
	}
	for _, tt := range tests {
		got, err := Read(tt.input)
		if err != nil {
			t.Fatalf("read %q: %v", tt.input, err)
		}
		if got.Kind != tt.want.Kind || !ValuesEqual(got, tt.want) {
			t.Fatalf("read %q: expected %s %s, got %s %s", tt.input, tt.want.KindName(), tt.want, got.KindName(), got)
		}
	}
}

func TestReadBigInteger(t *testing.T) {
	v, err := Read("123456789012345678901234567890")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "123456789012345678901234567890" {
		t.Fatalf("expected arbitrary precision integer, got %s", v)
	}
}

func TestReadCompound(t *testing.T) {
	v, err := Read("(a [1 2] {\"k\" (b)})")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != ValList || len(v.Elems()) != 3 {
		t.Fatalf("expected 3-element list, got %s", v)
	}
	if v.Elems()[1].Kind != ValVector {
		t.Fatalf("expected vector, got %s", v.Elems()[1].KindName())
	}
	if v.Elems()[2].Kind != ValHashMap {
		t.Fatalf("expected hash map, got %s", v.Elems()[2].KindName())
	}
	if v.String() != `(a [1 2] {"k" (b)})` {
		t.Fatalf("unexpected print %s", v)
	}
}

func TestReadCommentsAndCommas(t *testing.T) {
	v, err := Read("; leading comment\n(1, 2 ; trailing\n 3)")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "(1 2 3)" {
		t.Fatalf("expected (1 2 3), got %s", v)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"", "empty input"},
		{"   ; only a comment", "empty input"},
		{"(1 2", "unbalanced"},
		{"[1 2)", "unexpected )"},
		{")", "unexpected )"},
		{`"abc`, "unclosed string"},
		{`"\q"`, "unknown escape"},
		{"{1}", "odd number"},
		{"1 2", "unexpected input after expression"},
		{"1.2.3", "malformed number"},
	}
	for _, tt := range tests {
		_, err := Read(tt.input)
		if err == nil {
			t.Fatalf("read %q: expected error", tt.input)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("read %q: expected error containing %q, got %v", tt.input, tt.msg, err)
		}
	}
}

func TestReadAll(t *testing.T) {
	forms, err := ReadAll("(def! a 1) a ; done\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}
	forms, err = ReadAll("  ")
	if err != nil || len(forms) != 0 {
		t.Fatalf("expected no forms, got %v %v", forms, err)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	for _, src := range []string{
		`(a "b\n" [1 2.5] {"k" nil} true)`,
		`"quote \" and slash \\"`,
		"()",
		"[]",
		"{}",
	} {
		v, err := Read(src)
		if err != nil {
			t.Fatalf("read %q: %v", src, err)
		}
		again, err := Read(v.String())
		if err != nil {
			t.Fatalf("re-read %q: %v", v.String(), err)
		}
		if !ValuesEqual(v, again) {
			t.Fatalf("round trip of %q changed value: %s vs %s", src, v, again)
		}
	}
}

func TestPrStrUnreadable(t *testing.T) {
	v := StringVal("a\"b")
	if PrStr(v, false) != `a"b` {
		t.Fatalf("unexpected unreadable print %q", PrStr(v, false))
	}
	if PrStr(v, true) != `"a\"b"` {
		t.Fatalf("unexpected readable print %q", PrStr(v, true))
	}
}
