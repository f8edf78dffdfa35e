package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtTrace bool
	}{
		{"info filters debug", "info", false, false},
		{"debug passes debug", "debug", true, false},
		{"trace passes everything", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", got, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Log(nil, LevelTrace, "trace message")
			if got := strings.Contains(buf.String(), "trace message"); got != tt.logAtTrace {
				t.Errorf("trace message visible = %v, want %v (buf: %q)", got, tt.logAtTrace, buf.String())
			}
			if tt.logAtTrace && !strings.Contains(buf.String(), "level=TRACE") {
				t.Errorf("expected TRACE level label, got %q", buf.String())
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	Discard().Info("dropped")
}

func TestNewEventLog_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "info")
	if el != nil {
		t.Error("expected nil EventLog at info level")
	}

	// Nil log should still be safe to use
	el.Log("fit", map[string]any{"levels": 3})
	el.Close()

	if _, err := os.Stat(filepath.Join(dir, EventFile)); err == nil {
		t.Error("events.jsonl should not exist at info level")
	}
}

func TestEventLog_Writes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	el := NewEventLog(dir, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLog at debug level")
	}
	defer el.Close()

	fields := map[string]any{"levels": 3, "root": 1.5}
	el.Log("fit", fields)
	el.Log("batch", map[string]any{"size": 8})

	if _, ok := fields["time"]; ok {
		t.Error("Log() must not mutate the caller's map")
	}

	path := filepath.Join(dir, EventFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if first["event"] != "fit" || first["root"] != 1.5 {
		t.Errorf("first entry = %v", first)
	}
	if _, ok := first["time"]; !ok {
		t.Error("expected 'time' field in event entry")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestEventLog_LogAfterClose(t *testing.T) {
	el := NewEventLog(t.TempDir(), "trace")
	el.Log("before_close", nil)
	el.Close()
	el.Log("after_close", nil)
	el.Close()
}
