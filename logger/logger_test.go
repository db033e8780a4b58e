package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "roundtrip", buf)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewKeepsService(t *testing.T) {
	l := New(&Config{Level: "info", Format: "json"}, "test-svc")
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
	if derived := l.WithComponent("x"); derived.service != "test-svc" {
		t.Errorf("derived logger lost service, got %q", derived.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected invalid level to fall back to info, got %d lines", len(lines))
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")
	if got := len(decodeLines(t, &buf)); got != 2 {
		t.Errorf("expected 2 lines at warn level, got %d", got)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("harness.verifier")
	l.Info("pass")
	lines := decodeLines(t, &buf)
	if lines[0][FieldComponent] != "harness.verifier" {
		t.Errorf("component = %v", lines[0][FieldComponent])
	}
	if lines[0]["service"] != "roundtrip" {
		t.Errorf("service = %v", lines[0]["service"])
	}
}

func TestWithContextRunID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRunID(context.Background(), "run-1")
	jsonLogger(&buf, "info").WithContext(ctx).Info("step")
	lines := decodeLines(t, &buf)
	if lines[0][FieldRunID] != "run-1" {
		t.Errorf("run_id = %v", lines[0][FieldRunID])
	}
}

func TestWithContextNoRunID(t *testing.T) {
	l := Nop()
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when context has no run id")
	}
}

func TestWithContextSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithContext(ctx).Info("publish")
	line := decodeLines(t, &buf)[0]
	if line[FieldTraceID] != sc.TraceID().String() || line[FieldSpanID] != sc.SpanID().String() {
		t.Errorf("trace fields missing from %v", line)
	}
	if _, ok := line[FieldRunID]; ok {
		t.Error("no run id was stored")
	}

	buf.Reset()
	l := jsonLogger(&buf, "info")
	if l.WithSpan(context.Background()) != l {
		t.Error("expected the same logger without a span")
	}
	l.WithSpan(ctx).Info("verify")
	if decodeLines(t, &buf)[0][FieldSpanID] != sc.SpanID().String() {
		t.Error("span id missing")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").
		WithFields(map[string]interface{}{FieldTopic: "test-topic"}).
		WithError(fmt.Errorf("boom"))
	l.Error("failed", Fields(FieldGroupID, "g0"))
	line := decodeLines(t, &buf)[0]
	if line[FieldTopic] != "test-topic" || line[FieldGroupID] != "g0" || line["error"] != "boom" {
		t.Errorf("unexpected fields %v", line)
	}
}

func TestInit(t *testing.T) {
	defer SetGlobalLogger(nil)
	Init(Config{Level: "info", Format: "console", ServiceName: "roundtrip"})
	gl := GetGlobalLogger()
	if gl == nil {
		t.Fatal("expected global logger to be set after Init")
	}
	if gl.service != "roundtrip" {
		t.Errorf("service = %q", gl.service)
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(jsonLogger(&buf, "debug"))
	defer SetGlobalLogger(nil)
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	WithComponent("x").Info("component msg")
	if got := len(decodeLines(t, &buf)); got != 5 {
		t.Errorf("expected 5 lines, got %d", got)
	}
}

func TestNop(t *testing.T) {
	// Must not panic.
	Nop().WithComponent("x").Info("discarded", Fields("k", "v"))
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "roundtrip", &buf)
	l.Info("hello", Fields("topic", "test-topic"))
	out := buf.String()
	if !strings.Contains(out, "[ROU][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "topic:test-topic") {
		t.Errorf("expected formatted field, got %q", out)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"pretty format", Config{Level: "debug", Format: FormatPretty}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "syslog"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected map %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 keys, got %d", len(m))
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("publish", fmt.Errorf("nope"))
	if m[FieldOperation] != "publish" || m[FieldError] != "nope" {
		t.Errorf("unexpected map %v", m)
	}
}

func TestMergeWithDurationNil(t *testing.T) {
	m := MergeWithDuration(nil, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("duration = %v", m[FieldDuration])
	}
}

func TestMergeHelpers(t *testing.T) {
	m := MergeWithError(nil, fmt.Errorf("e"))
	m = MergeWithDuration(m, time.Second)
	if m[FieldError] != "e" || m[FieldDuration] != int64(1000) {
		t.Errorf("unexpected map %v", m)
	}
}
