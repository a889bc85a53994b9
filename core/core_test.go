package mal

import (
	"net"
	"path/filepath"
	"testing"
)

func testCore(t *testing.T) *Core {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "mal.sock")
	c, err := NewCore(testSession(t, &memJournal{}), sock)
	if err != nil {
		t.Fatal(err)
	}
	go c.Run()
	t.Cleanup(c.Shutdown)
	return c
}

func roundTrip(t *testing.T, conn net.Conn, msg map[string]any) map[string]any {
	t.Helper()
	if err := WriteMsg(conn, msg); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadMsg(conn)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCoreHandleEval(t *testing.T) {
	c := &Core{session: testSession(t, nil)}

	resp := c.handleRequest(map[string]any{"id": "1", "op": "eval", "expr": "(def! x [1 2])"})
	if resp["ok"] != true || resp["value"] != "[1 2]" || resp["kind"] != "Vector" {
		t.Fatalf("unexpected response %v", resp)
	}
	if resp["id"] != "1" {
		t.Fatalf("expected id echoed, got %v", resp["id"])
	}

	resp = c.handleRequest(map[string]any{"id": "2", "op": "eval", "expr": "(y)"})
	if resp["ok"] != false || resp["kind"] != "UnboundSymbol" {
		t.Fatalf("expected UnboundSymbol failure, got %v", resp)
	}

	resp = c.handleRequest(map[string]any{"id": "3", "op": "eval"})
	if resp["ok"] != false {
		t.Fatalf("expected failure without expr, got %v", resp)
	}
}

func TestCoreHandleOps(t *testing.T) {
	c := &Core{session: testSession(t, nil)}
	c.session.Rep("(def! answer 42)")

	resp := c.handleRequest(map[string]any{"id": "1", "op": "symbols"})
	names, _ := resp["value"].([]any)
	found := false
	for _, n := range names {
		if n == "answer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected answer among symbols, got %v", resp)
	}

	resp = c.handleRequest(map[string]any{"id": "2", "op": "traces", "n": float64(1)})
	traces, _ := resp["value"].([]any)
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %v", resp)
	}
	entry := traces[0].(map[string]any)
	if entry["source"] != "(def! answer 42)" || entry["result"] != "42" {
		t.Fatalf("unexpected trace %v", entry)
	}

	resp = c.handleRequest(map[string]any{"id": "3", "op": "traces", "n": "x"})
	if resp["ok"] != false {
		t.Fatalf("expected failure for bad n, got %v", resp)
	}

	resp = c.handleRequest(map[string]any{"id": "4", "op": "clear"})
	if resp["ok"] != true {
		t.Fatalf("clear failed: %v", resp)
	}
	if _, ok := c.session.Env().Lookup("answer"); ok {
		t.Fatal("clear must drop definitions")
	}

	resp = c.handleRequest(map[string]any{"id": "5", "op": "frobnicate"})
	if resp["ok"] != false || resp["error"] != "unknown op: frobnicate" {
		t.Fatalf("unexpected response %v", resp)
	}

	resp = c.handleRequest(map[string]any{"id": "6"})
	manual, _ := resp["value"].(map[string]any)
	if manual["name"] != "mal-core" {
		t.Fatalf("expected manual, got %v", resp)
	}
}

func TestCoreOverSocket(t *testing.T) {
	c := testCore(t)
	conn, err := net.Dial("unix", c.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	roundTrip(t, conn, map[string]any{"id": NextID(), "op": "eval", "expr": "(def! f (fn* (n) (* n 2)))"})
	resp := roundTrip(t, conn, map[string]any{"id": NextID(), "op": "eval", "expr": "(f 21)"})
	if resp["ok"] != true || resp["value"] != "42" {
		t.Fatalf("unexpected response %v", resp)
	}

	// A second client sees the same session.
	other, err := net.Dial("unix", c.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	resp = roundTrip(t, other, map[string]any{"id": NextID(), "op": "eval", "expr": "(f 1)"})
	if resp["value"] != "2" {
		t.Fatalf("expected shared session, got %v", resp)
	}
}
