package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/langlog/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &JSONLExporter{}
	log := internal.CreateTestLog("test1")

	if err := exporter.Export(log, &buf); err != nil {
		t.Fatalf("JSONLExporter.Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(log.Messages) {
		t.Fatalf("got %d lines, want %d", len(lines), len(log.Messages))
	}
	for i, line := range lines {
		var msg internal.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
		if msg.Role != log.Messages[i].Role {
			t.Errorf("line %d role = %v, want %v", i, msg.Role, log.Messages[i].Role)
		}
	}
}

func TestJSONLExporter_ExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	exporter := &JSONLExporter{}

	if err := exporter.Export(internal.NewLog("empty"), &buf); err != nil {
		t.Fatalf("JSONLExporter.Export() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty log produced output: %q", buf.String())
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
