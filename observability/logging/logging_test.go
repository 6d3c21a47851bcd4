package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "cased", "test", Options{Level: "debug"})
	logger.Debug("stake opened", slog.String("owner", "case1xyz"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"message":  "stake opened",
		"severity": "DEBUG",
		"service":  "cased",
		"env":      "test",
		"owner":    "case1xyz",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("%s: got %q, want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("expected timestamp key, got %v", line)
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "cased", "", Options{Level: "warn"})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info line to be filtered, got %q", buf.String())
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("secret", "hunter2"); attr.Value.String() != RedactedValue {
		t.Fatalf("expected secret to be masked, got %v", attr.Value)
	}
	if attr := MaskField("service", "cased"); attr.Value.String() != "cased" {
		t.Fatalf("expected allowlisted key to pass through")
	}
}

func TestMaskDSN(t *testing.T) {
	attr := MaskDSN("explorer", "postgres://casechain:pw@db.internal:5432/events?sslmode=disable")
	got := attr.Value.String()
	if strings.Contains(got, "pw") || strings.Contains(got, "sslmode") {
		t.Fatalf("expected credentials and query to be dropped, got %q", got)
	}
	if !strings.Contains(got, "db.internal:5432") {
		t.Fatalf("expected host to survive, got %q", got)
	}
	if attr := MaskDSN("explorer", "file:events.db"); attr.Value.String() != RedactedValue {
		t.Fatalf("expected opaque dsn to be masked, got %v", attr.Value)
	}
}
