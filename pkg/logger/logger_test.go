package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	l.Errorf("shown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO line should be filtered at WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Errorf("missing WARN line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown 3") {
		t.Errorf("missing ERROR line: %q", out)
	}
}

func TestWithPrefixSharesSink(t *testing.T) {
	l, buf := newTestLogger(INFO)
	child := l.WithPrefix("capture")

	child.Infof("session started")
	l.SetLevel(ERROR)
	child.Infof("filtered after parent level change")

	out := buf.String()
	if !strings.Contains(out, "[capture] session started") {
		t.Errorf("expected prefixed line, got %q", out)
	}
	if strings.Contains(out, "filtered") {
		t.Errorf("child should follow parent level: %q", out)
	}

	nested := child.WithPrefix("ffmpeg")
	l.SetLevel(DEBUG)
	nested.Debugf("x")
	if !strings.Contains(buf.String(), "[capture] [ffmpeg] x") {
		t.Errorf("nested prefix missing: %q", buf.String())
	}
}

func TestFatalCallsExit(t *testing.T) {
	l, buf := newTestLogger(INFO)
	code := -1
	l.sink.exit = func(c int) { code = c }

	l.Fatalf("boom")

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom") {
		t.Errorf("missing fatal line: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", DEBUG, true},
		{"INFO", INFO, true},
		{"", INFO, true},
		{"warning", WARN, true},
		{"error", ERROR, true},
		{"verbose", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNoColorWhenDisabled(t *testing.T) {
	l, buf := newTestLogger(INFO)
	l.Infof("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("unexpected escape codes: %q", buf.String())
	}
}
