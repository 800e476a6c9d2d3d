package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, FormatJSON, "warn", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", slog.String("form", "home"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "kept" || record["form"] != "home" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNew_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, FormatConsole, "debug", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, "xml", "info", false); err == nil {
		t.Fatal("expected unknown format error")
	}
	if _, err := New(nil, FormatJSON, "loud", false); err == nil {
		t.Fatal("expected unknown level error")
	}
}

func TestContextPropagation(t *testing.T) {
	t.Parallel()

	if From(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}
	logger := Discard()
	ctx := With(context.Background(), logger)
	if From(ctx) != logger {
		t.Fatal("expected stored logger")
	}
	if Or(ctx, nil) != logger {
		t.Fatal("Or should fall back to ctx")
	}
}
