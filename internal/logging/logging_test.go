package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("agent settled", "agent", "static", "findings", 3)
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "agent settled") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "static") {
		t.Errorf("expected key/value in output, got %q", out)
	}
}

func TestNew_DebugDisabledFiltersBelowWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warning in output, got %q", out)
	}
}

func TestNoOpLogger_SatisfiesInterface(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Info("ignored", "k", "v")
}

type recordingLogger struct {
	entries [][]any
}

func (r *recordingLogger) record(kv []any)           { r.entries = append(r.entries, kv) }
func (r *recordingLogger) Debug(_ string, kv ...any) { r.record(kv) }
func (r *recordingLogger) Info(_ string, kv ...any)  { r.record(kv) }
func (r *recordingLogger) Warn(_ string, kv ...any)  { r.record(kv) }
func (r *recordingLogger) Error(_ string, kv ...any) { r.record(kv) }

func TestWith_PrependsFields(t *testing.T) {
	rec := &recordingLogger{}
	l := With(rec, "run_id", "abc")

	l.Warn("agent failed", "agent", "static")

	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(rec.entries))
	}
	got := rec.entries[0]
	if len(got) != 4 || got[0] != "run_id" || got[1] != "abc" || got[2] != "agent" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestWith_ZapLogger(t *testing.T) {
	var buf bytes.Buffer
	l := With(New(&buf, false), "run_id", "run-42")

	l.Warn("deadline exceeded")

	if !strings.Contains(buf.String(), "run-42") {
		t.Errorf("expected run id in output, got %q", buf.String())
	}
}
