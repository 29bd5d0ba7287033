package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, LevelInfo, FormatJSON)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("saved output", "lines", 42)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record passed an info logger: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("record is not json: %v\n%s", err, out)
	}
	if rec["msg"] != "saved output" || rec["lines"] != float64(42) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, LevelInfo, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	if _, err := Init(&buf, LevelDebug, FormatText); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID = %q", got)
	}
	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id missing from %q", buf.String())
	}

	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID of an empty context = %q", got)
	}
}
