package mal

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

func TestWireRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msgs := []map[string]any{
		{"id": "r1", "op": "eval", "expr": "(+ 1 2)"},
		{"id": "r2", "ok": true, "value": []any{"a", "b"}},
	}
	for _, m := range msgs {
		if err := WriteMsg(&buf, m); err != nil {
			t.Fatal(err)
		}
	}
	first, err := ReadMsg(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if first["expr"] != "(+ 1 2)" {
		t.Fatalf("unexpected first message %v", first)
	}
	second, err := ReadMsg(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if vals, _ := second["value"].([]any); len(vals) != 2 {
		t.Fatalf("unexpected second message %v", second)
	}
	if _, err := ReadMsg(&buf); err != io.EOF {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestWireFraming(t *testing.T) {
	var buf bytes.Buffer
	WriteMsg(&buf, map[string]any{"a": 1})
	length := binary.BigEndian.Uint32(buf.Bytes()[:4])
	if int(length) != buf.Len()-4 {
		t.Fatalf("length prefix %d does not match body %d", length, buf.Len()-4)
	}
}

func TestWireTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.WriteString("{}")
	_, err := ReadMsg(&buf)
	if err == nil || !strings.Contains(err.Error(), "read body") {
		t.Fatalf("expected truncated body error, got %v", err)
	}
}

func TestNextIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NextID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestWireRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(MaxMsgSize+1))
	_, err := ReadMsg(&buf)
	if err == nil || !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestWireRejectsOversizedWrite(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMsg(&buf, map[string]any{"expr": strings.Repeat("x", MaxMsgSize)})
	if err == nil || !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("expected size limit error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", buf.Len())
	}
}
