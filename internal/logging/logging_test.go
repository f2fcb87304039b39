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
	t.Parallel()

	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"debug":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): got %v want %v", in, got, want)
		}
	}
}

func TestNew_NonTerminalWritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)
	log.Debug("hidden")
	log.Info("fetched", "op", "tasks", "count", 3)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record should be filtered at info level: %q", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("expected JSON record; got %q (%v)", line, err)
	}
	if rec["msg"] != "fetched" || rec["op"] != "tasks" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestOpenFile_Appends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "taskboard.log")
	log, closeFn, err := OpenFile(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	log.Info("first")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"first"`) {
		t.Fatalf("expected JSON record in log file; got %q", string(b))
	}
}
