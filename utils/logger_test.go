package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")

	l.Info("hidden %d", 1)
	l.Debug("hidden %d", 2)
	l.Warn("shown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info/debug lines should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 3") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info").With("client", "Acme")
	l.Info("syncing")

	if !strings.Contains(buf.String(), "Acme") {
		t.Errorf("field missing from output: %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("nothing %s", "happens")
}
