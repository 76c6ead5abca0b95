package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWriteEmitsOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Warn("report.field.corrupt", map[string]any{
		"report_id": "r-1",
		"error":     errors.New("unexpected end of JSON input"),
		"msg":       "ignored",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["msg"] != "report.field.corrupt" {
		t.Fatalf("fields must not override msg, got %v", payload["msg"])
	}
	if payload["error"] != "unexpected end of JSON input" {
		t.Fatalf("expected error rendered as string, got %v", payload["error"])
	}
	if payload["report_id"] != "r-1" {
		t.Fatalf("unexpected report_id: %v", payload["report_id"])
	}
}
