package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"Warn":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"trace": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	base := NewLogger(&buf, "json", slog.LevelInfo)
	if slog.Default() != base {
		t.Error("NewLogger did not set the default logger")
	}
	logger := WithStep(WithRunID(WithNetwork(base, "sepolia", 11155111), "run-1"), "vault", "NodusVault")

	logger.Debug("hidden")
	logger.Info("step deployed", "address", "0xA1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	for key, want := range map[string]any{
		"msg":      "step deployed",
		"network":  "sepolia",
		"chain_id": float64(11155111),
		"run_id":   "run-1",
		"step_id":  "vault",
		"contract": "NodusVault",
		"address":  "0xA1",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
}

func TestNewLogger_Text(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	NewLogger(&buf, "", slog.LevelWarn).Info("skipped")
	slog.Warn("careful", "step_id", "vault")

	out := buf.String()
	if strings.Contains(out, "skipped") {
		t.Errorf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=careful") || !strings.Contains(out, "step_id=vault") {
		t.Errorf("text output = %q", out)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("FromContext without logger must return slog.Default()")
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext did not return the stored logger")
	}
}
