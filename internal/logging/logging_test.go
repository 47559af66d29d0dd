// ABOUTME: Tests for logger construction
// ABOUTME: Verifies level filtering and formatter selection
package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Info("indexed", "chunks", 3)

	out := buf.String()
	if !strings.Contains(out, `"msg":"indexed"`) {
		t.Errorf("expected JSON msg field, got %q", out)
	}
	if !strings.Contains(out, `"chunks"`) {
		t.Errorf("expected chunks field, got %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{"debug level shows debug", "debug", true},
		{"info level hides debug", "info", false},
		{"unknown level falls back to info", "chatty", false},
		{"case insensitive", "DEBUG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.level, "text")
			logger.Debug("debug line")
			got := strings.Contains(buf.String(), "debug line")
			if got != tt.wantDebug {
				t.Errorf("debug output present = %v, want %v (output %q)", got, tt.wantDebug, buf.String())
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
}
