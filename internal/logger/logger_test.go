package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		" WARN ":  log.WarnLevel,
		"warning": log.WarnLevel,
		"Error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestForScreenCarriesIndex(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	defer func() { Logger = prev }()

	Logger = log.New(&buf)
	ForScreen(2).Info("Creating image")

	if !strings.Contains(buf.String(), "screen=2") {
		t.Errorf("log line missing screen key: %q", buf.String())
	}
}
