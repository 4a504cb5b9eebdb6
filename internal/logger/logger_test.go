package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	// Create a buffer to capture log output
	var buf bytes.Buffer

	// Create a logger with custom configuration
	config := &Config{
		Level:       DEBUG,
		Format:      TEXT,
		Output:      &buf,
		DefaultTags: map[string]interface{}{"test": true},
	}
	logger := New(config)

	// Test different log levels
	logger.Debug("This is a debug message")
	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "This is a debug message") {
		t.Errorf("Expected debug message in log output, got: %s", buf.String())
	}

	buf.Reset()
	logger.Info("This is an info message")
	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "This is an info message") {
		t.Errorf("Expected info message in log output, got: %s", buf.String())
	}

	// Test with context
	buf.Reset()
	logger.WithContext("testContext").Warn("This is a warning")
	if !strings.Contains(buf.String(), "WARN") ||
		!strings.Contains(buf.String(), "This is a warning") ||
		!strings.Contains(buf.String(), "[testContext]") {
		t.Errorf("Expected warning with context in log output, got: %s", buf.String())
	}

	// Test with fields
	buf.Reset()
	logger.WithField("customField", "value").Error("This is an error")
	if !strings.Contains(buf.String(), "ERROR") ||
		!strings.Contains(buf.String(), "This is an error") ||
		!strings.Contains(buf.String(), "customField=value") {
		t.Errorf("Expected error with field in log output, got: %s", buf.String())
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger := New(&Config{
		Level:  INFO,
		Format: JSON,
		Output: &buf,
	})

	jsonLogger.WithField("namespace", "team-a").Info("JSON message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "INFO" {
		t.Errorf("Expected level INFO, got %v", entry["level"])
	}
	if entry["message"] != "JSON message" {
		t.Errorf("Expected message in JSON output, got %v", entry["message"])
	}
	if entry["namespace"] != "team-a" {
		t.Errorf("Expected field in JSON output, got %v", entry["namespace"])
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer

	// Create a logger with INFO level
	logger := New(&Config{
		Level:  INFO,
		Format: TEXT,
		Output: &buf,
	})

	// DEBUG should not be logged when level is INFO
	logger.Debug("Should not appear")
	if buf.Len() > 0 {
		t.Errorf("DEBUG message should not have been logged, got: %s", buf.String())
	}

	// INFO should be logged
	buf.Reset()
	logger.Info("Should appear")
	if buf.Len() == 0 {
		t.Errorf("INFO message should have been logged")
	}

	// Test level parsing
	if ParseLevel("DEBUG") != DEBUG {
		t.Errorf("Failed to parse DEBUG level")
	}

	if ParseLevel("unknown") != INFO {
		t.Errorf("Unknown level should default to INFO")
	}
}

func TestTextFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: INFO, Format: TEXT, Output: &buf}).
		WithFields(map[string]interface{}{"b": 2, "a": 1, "c": 3})

	logger.Info("sorted fields")

	line := buf.String()
	if strings.Index(line, "a=1") > strings.Index(line, "b=2") ||
		strings.Index(line, "b=2") > strings.Index(line, "c=3") {
		t.Errorf("Expected fields in sorted order, got: %s", line)
	}
}

func ExampleLogger_WithContext() {
	// This example shows how to use contextual logging
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  DEBUG,
		Format: TEXT,
		Output: &buf,
	})

	// Create a component logger
	componentLogger := logger.WithContext("summarize", "pointwise")

	// Log with the component context
	componentLogger.Info("Summary stored")

	// The output would include the context path [summarize.pointwise]
	fmt.Println("Contains context:", strings.Contains(buf.String(), "[summarize.pointwise]"))
	// Output: Contains context: true
}
