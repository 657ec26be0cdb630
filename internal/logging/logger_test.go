package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(level Level, format string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	return &Logger{
		level:  level,
		format: format,
		output: buf,
		fields: make(map[string]any),
	}, buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(WarnLevel, "text")

	logger.Debug("ignored")
	logger.Info("ignored")
	logger.Warn("kept")
	logger.Error("kept too")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[1], "ERROR") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLogger_WithFieldsText(t *testing.T) {
	logger, buf := newTestLogger(DebugLevel, "text")

	logger.WithField("database", "sales").WithField("attempt", 2).Info("executing statement")

	out := buf.String()
	for _, want := range []string{"database=sales", "attempt=2", "executing statement"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	// The parent logger must not inherit the child's fields.
	buf.Reset()
	logger.Info("plain")

	if strings.Contains(buf.String(), "database") {
		t.Errorf("parent logger polluted by child fields: %q", buf.String())
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	logger, buf := newTestLogger(InfoLevel, "json")

	logger.WithField("turn", "abc").ErrorWithErr("query failed", errTest)

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry.Level != "ERROR" || entry.Message != "query failed" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if entry.Error != "boom" || entry.Fields["turn"] != "abc" {
		t.Errorf("unexpected entry details: %+v", entry)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

var errTest = fakeErr("boom")

func TestGlobalLoggerNilSafe(t *testing.T) {
	saved := globalLogger
	globalLogger = nil

	defer func() { globalLogger = saved }()

	// None of these should panic without an initialized global logger.
	Debug("x")
	Infof("x %d", 1)
	Warn("x")
	ErrorWithErr("x", errTest)

	// Chaining on the field helpers is how every pipeline stage logs, so it
	// must be safe before initialization too.
	WithField("k", "v").WithFields(map[string]any{"turn": "t"}).Info("x")
	WithFields(map[string]any{"db": "main"}).WithError(errTest).Warn("x")

	if GetLogger() == nil {
		t.Error("GetLogger should never return nil")
	}

	if WithField("k", "v") == nil {
		t.Error("WithField should return a usable logger without a global logger")
	}
}
