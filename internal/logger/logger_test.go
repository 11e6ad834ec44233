package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestZapLoggerWritesJSONObjects(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", &buf, false)

	log.InfoObj("request done", "http_response", map[string]any{"status_code": 200})
	log.ErrorObj("request failed", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "request done" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	obj, ok := entry["http_response"].(map[string]any)
	if !ok || obj["status_code"] != float64(200) {
		t.Fatalf("unexpected object field %v", entry["http_response"])
	}

	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["error"] != "boom" {
		t.Fatalf("expected error rendered as string, got %v", entry["error"])
	}
}

func TestZapLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf, false)

	log.DebugObj("hidden", "k", 1)
	log.InfoObj("hidden", "k", 1)
	log.WarnObj("shown", "k", 1)

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose").String(); got != "info" {
		t.Fatalf("expected info, got %s", got)
	}
	if got := parseLevel(" WARNING ").String(); got != "warn" {
		t.Fatalf("expected warn, got %s", got)
	}
}

func TestNopLoggerSatisfiesInterface(t *testing.T) {
	var log Logger = &NopLogger{}
	log.InfoObj("ignored", "k", nil)
}
