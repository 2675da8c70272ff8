package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Error("llm.call", map[string]any{"agent": "analyzer", "err": errors.New("boom"), "msg": "ignored"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["level"] != "error" || entry["msg"] != "llm.call" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry["err"] != "boom" {
		t.Fatalf("expected error rendered as string, got %v", entry["err"])
	}
	if entry["agent"] != "analyzer" {
		t.Fatalf("missing field: %+v", entry)
	}
}
