package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsTagTheirOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("hello %d", 1)
	l.Warn("careful")
	l.Error("boom")
	l.Debug("details")

	out := buf.String()
	for _, tag := range []string{"[INFO]", "[WARN]", "[ERROR]", "[DEBUG]"} {
		if !strings.Contains(out, tag) {
			t.Fatalf("expected output to contain %q, got %q", tag, out)
		}
	}
	if !strings.Contains(out, "hello 1") {
		t.Fatalf("expected formatted info message, got %q", out)
	}
}

func TestPrintlnRoutesByLevelName(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Println("WARN", "careful now")
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Fatalf("expected Println(\"WARN\", ...) to tag as WARN, got %q", buf.String())
	}
}

func TestPrintlnDefaultsToInfoForUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Println("TRACE", "whatever")
	if !strings.Contains(buf.String(), "[INFO]") {
		t.Fatalf("expected an unrecognized level to fall back to INFO, got %q", buf.String())
	}
}
