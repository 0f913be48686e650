package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"mover/internal/logging"
	"mover/internal/testsupport"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestConsoleInfoOmitsCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mover.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("feed polled", logging.Int("items", 3))

	out := readLog(t, logPath)
	if strings.Contains(out, ".go:") {
		t.Fatalf("info output should not include caller info: %q", out)
	}
	if !strings.Contains(out, "INFO feed polled items=3") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestConsoleDebugIncludesCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mover.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("dedup lookup")

	out := readLog(t, logPath)
	if !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("debug output should include caller info: %q", out)
	}
}

func TestComponentRenderedAsPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mover.log")
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger := logging.NewComponentLogger(base, "watcher")
	logger.Info("path moved", logging.String(logging.FieldPath, "/srv/done/Show S01E01.mkv"))

	out := readLog(t, logPath)
	if !strings.Contains(out, "watcher: path moved") {
		t.Fatalf("expected component prefix, got %q", out)
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component should not be rendered as a key: %q", out)
	}
	if !strings.Contains(out, `path="/srv/done/Show S01E01.mkv"`) {
		t.Fatalf("expected quoted path value, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mover.json")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "submit failed", "rpc_submit_failed")

	out := readLog(t, logPath)
	for _, want := range []string{`"msg":"submit failed"`, `"level":"warn"`, `"event_type":"rpc_submit_failed"`, `"error_hint"`, `"impact"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("json output missing %s: %q", want, out)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger, logPath, err := logging.NewFromConfig(cfg, "20261014T100000Z")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if filepath.Base(logPath) != "mover-20261014T100000Z.log" {
		t.Fatalf("unexpected log path %q", logPath)
	}
	logger.Info("daemon started")
	if out := readLog(t, logPath); !strings.Contains(out, "daemon started") {
		t.Fatalf("log file missing message: %q", out)
	}
}

func TestJSONTimestampAndEmptyIdentifiers(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mover.json")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("path placed",
		logging.String(logging.FieldCorrelationID, ""),
		logging.String(logging.FieldRunID, "run-1"),
		logging.String(logging.FieldPath, ""),
	)

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	ts, _ := record["ts"].(string)
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`).MatchString(ts) {
		t.Fatalf("unexpected ts %q", ts)
	}
	if _, ok := record["time"]; ok {
		t.Fatal("time key should be renamed to ts")
	}
	if _, ok := record[logging.FieldCorrelationID]; ok {
		t.Fatalf("empty correlation_id should be dropped: %v", record)
	}
	if record[logging.FieldRunID] != "run-1" {
		t.Fatalf("run_id missing: %v", record)
	}
	if _, ok := record[logging.FieldPath]; !ok {
		t.Fatalf("empty non-identifier fields are kept: %v", record)
	}
}

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestPruneRunLogs(t *testing.T) {
	dir := t.TempDir()
	stale := 40 * 24 * time.Hour
	old := filepath.Join(dir, logging.RunLogName("20260801T000000.000Z"))
	pointed := filepath.Join(dir, logging.RunLogName("20260802T000000.000Z"))
	active := filepath.Join(dir, logging.RunLogName("20261014T100000.000Z"))
	fresh := filepath.Join(dir, logging.RunLogName("20261013T000000.000Z"))
	other := filepath.Join(dir, "notes.log")
	touch(t, old, stale)
	touch(t, pointed, stale)
	touch(t, active, stale)
	touch(t, fresh, time.Hour)
	touch(t, other, stale)
	if err := os.Symlink(pointed, filepath.Join(dir, logging.CurrentLogName)); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	removed := logging.PruneRunLogs(logging.NewNop(), dir, 30, active)
	if len(removed) != 1 || filepath.Base(removed[0]) != filepath.Base(old) {
		t.Fatalf("unexpected removals %v", removed)
	}
	for _, path := range []string{pointed, active, fresh, other, filepath.Join(dir, logging.CurrentLogName)} {
		if _, err := os.Lstat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestPruneRunLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logging.RunLogName("20260101T000000.000Z"))
	touch(t, path, 400*24*time.Hour)
	if removed := logging.PruneRunLogs(nil, dir, 0, ""); removed != nil {
		t.Fatalf("retention 0 should disable pruning, removed %v", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log removed: %v", err)
	}
}

func TestRunLogName(t *testing.T) {
	if got := logging.RunLogName(""); got != "mover.log" {
		t.Fatalf("RunLogName(\"\") = %q", got)
	}
	if got := logging.RunLogName("r1"); got != "mover-r1.log" {
		t.Fatalf("RunLogName(r1) = %q", got)
	}
}
