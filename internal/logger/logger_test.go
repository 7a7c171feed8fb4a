package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	// Create a buffer to capture log output
	var buf bytes.Buffer

	config := &Config{
		Level:       slog.LevelDebug,
		Format:      TEXT,
		Output:      &buf,
		DefaultTags: map[string]interface{}{"test": true},
	}
	logger := New(config)

	logger.Debug("This is a debug message")
	if !strings.Contains(buf.String(), "level=DEBUG") || !strings.Contains(buf.String(), "This is a debug message") {
		t.Errorf("Expected debug message in log output, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "test=true") {
		t.Errorf("Expected default tag in log output, got: %s", buf.String())
	}

	// Test with context
	buf.Reset()
	WithContext(logger, "reader", "session").Warn("This is a warning")
	if !strings.Contains(buf.String(), "level=WARN") ||
		!strings.Contains(buf.String(), "component=reader.session") {
		t.Errorf("Expected warning with context in log output, got: %s", buf.String())
	}

	// Test JSON format
	buf.Reset()
	jsonLogger := New(&Config{
		Level:  slog.LevelInfo,
		Format: JSON,
		Output: &buf,
	})
	jsonLogger.Info("JSON test message", "page", 3)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected JSON output, got %s: %v", buf.String(), err)
	}
	if record["msg"] != "JSON test message" || record["page"] != float64(3) {
		t.Errorf("Unexpected JSON record: %v", record)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := FromSettings("warn", "text", &buf)

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below WARN, got: %s", buf.String())
	}

	logger.Error("should appear")
	if !strings.Contains(buf.String(), "should appear") || !strings.Contains(buf.String(), "service=readaloud") {
		t.Errorf("Expected error output, got: %s", buf.String())
	}

	buf.Reset()
	FromSettings("disabled", "text", &buf).Error("silenced")
	if buf.Len() != 0 {
		t.Errorf("Expected disabled logger to be silent, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"off":     Disabled,
		"bogus":   slog.LevelInfo,
	}

	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if ParseFormat("JSON") != JSON || ParseFormat("text") != TEXT || ParseFormat("") != TEXT {
		t.Errorf("ParseFormat returned unexpected values")
	}
}
