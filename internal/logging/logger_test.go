package logging

import (
	"bytes"
	"strings"
	"testing"
)

func testLogger(component string, minLevel LogLevel, buf *bytes.Buffer) *Logger {
	return &Logger{
		component: component,
		minLevel:  minLevel,
		out:       buf,
		formatter: &TextFormatter{},
	}
}

func TestMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger("locator", LogLevelWarn, &buf)

	logger.Debug("looking for reference")
	logger.Info("reference found")
	logger.Warn("threshold lowered")

	out := buf.String()
	if strings.Contains(out, "looking for reference") || strings.Contains(out, "reference found") {
		t.Errorf("messages below min level leaked through:\n%s", out)
	}
	if !strings.Contains(out, "threshold lowered") {
		t.Errorf("warning at min level was dropped:\n%s", out)
	}
}

func TestEntryFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger("detector", LogLevelDebug, &buf)

	logger.Infof("poll %d of %d", 3, 10)

	line := buf.String()
	if !strings.Contains(line, "[INFO]") {
		t.Errorf("expected level tag in %q", line)
	}
	if !strings.Contains(line, "[detector]") {
		t.Errorf("expected component tag in %q", line)
	}
	if !strings.Contains(line, "poll 3 of 10") {
		t.Errorf("expected formatted message in %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("expected trailing newline in %q", line)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger("session", LogLevelDebug, &buf)

	logger.Error("capture failed", errBounds)

	line := buf.String()
	if !strings.Contains(line, "[ERROR]") || !strings.Contains(line, "error=display out of range") {
		t.Errorf("expected error cause in %q", line)
	}
}

var errBounds = &boundsError{}

type boundsError struct{}

func (e *boundsError) Error() string { return "display out of range" }

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"DEBUG", LogLevelDebug},
		{"WARN", LogLevelWarn},
		{"verbose", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestGlobalLevelAppliesToNewLoggers(t *testing.T) {
	SetGlobalLevel(LogLevelDebug)
	defer SetGlobalLevel(LogLevelInfo)

	var buf bytes.Buffer
	logger := NewLogger("traversal")
	logger.out = &buf

	logger.Debug("expanding frontier")

	if !strings.Contains(buf.String(), "expanding frontier") {
		t.Errorf("new logger should pick up the global level, got %q", buf.String())
	}
}
