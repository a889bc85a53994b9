package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildRequestEval(t *testing.T) {
	req, err := buildRequest(options{op: "eval", expr: "(+ 1 2)", n: -1}, strings.NewReader("ignored"))
	if err != nil {
		t.Fatal(err)
	}
	if req["op"] != "eval" || req["expr"] != "(+ 1 2)" {
		t.Fatalf("unexpected request %v", req)
	}
	if id, _ := req["id"].(string); id == "" {
		t.Fatal("expected an id")
	}
}

func TestBuildRequestSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.mal")
	if err := os.WriteFile(path, []byte("(def! a 1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	req, err := buildRequest(options{op: "eval", file: path}, strings.NewReader("ignored"))
	if err != nil {
		t.Fatal(err)
	}
	if req["expr"] != "(def! a 1)\n" {
		t.Fatalf("expected file contents, got %v", req["expr"])
	}

	req, err = buildRequest(options{op: "eval"}, strings.NewReader("(list 1)"))
	if err != nil {
		t.Fatal(err)
	}
	if req["expr"] != "(list 1)" {
		t.Fatalf("expected stdin contents, got %v", req["expr"])
	}

	if _, err := buildRequest(options{op: "eval"}, strings.NewReader("  \n")); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestBuildRequestOps(t *testing.T) {
	req, err := buildRequest(options{op: "traces", n: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req["op"] != "traces" || req["n"] != 3 {
		t.Fatalf("unexpected request %v", req)
	}
	req, _ = buildRequest(options{op: "traces", n: -1}, nil)
	if _, ok := req["n"]; ok {
		t.Fatal("n must be omitted when not given")
	}
	req, _ = buildRequest(options{op: "manual"}, nil)
	if req["op"] != "" {
		t.Fatalf("manual maps to the empty op, got %v", req["op"])
	}
	if _, err := buildRequest(options{op: "frobnicate"}, nil); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		resp map[string]any
		want string
		ok   bool
	}{
		{map[string]any{"ok": true, "value": "[1 2]", "kind": "Vector"}, "[1 2]", true},
		{map[string]any{"ok": false, "error": "symbol x not found", "kind": "UnboundSymbol"}, "error (UnboundSymbol): symbol x not found", false},
		{map[string]any{"ok": false, "error": "parse error: empty input"}, "error: parse error: empty input", false},
		{map[string]any{"ok": true, "value": []any{"+", "list"}}, "+\nlist", true},
		{map[string]any{"ok": true, "value": []any{
			map[string]any{"source": "(+ 1 2)", "result": "3", "steps": float64(4)},
			map[string]any{"source": "(x)", "error": "symbol x not found", "steps": float64(2)},
		}}, "(+ 1 2) => 3  [4 steps]\n(x) => error: symbol x not found  [2 steps]", true},
	}
	for _, tt := range tests {
		got, ok := formatResponse(tt.resp)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("formatResponse(%v) = %q, %v; want %q, %v", tt.resp, got, ok, tt.want, tt.ok)
		}
	}
}
