package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	assert.Contains(t, output, "test message 42")
	assert.Contains(t, output, "subsystem=test-subsystem")
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Store", errors.New("disk full"), "write failed for %s", "environment_data")

	output := buf.String()
	assert.Contains(t, output, "write failed for environment_data")
	assert.Contains(t, output, "disk full")
}

func TestDefaultSinkForwards(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	sink := Default()
	sink.Warn("Flags", errors.New("boom"), "check %s failed", "dark_mode")
	sink.Debug("Flags", "loaded %d flags", 2)

	output := buf.String()
	assert.Contains(t, output, "check dark_mode failed")
	assert.Contains(t, output, "boom")
	assert.Contains(t, output, "loaded 2 flags")
}

func TestRecordingSink(t *testing.T) {
	sink := &RecordingSink{}
	cause := errors.New("timeout")

	sink.Debug("Persist", "hydrated %s", "icsUrl")
	sink.Warn("Persist", cause, "write-through failed for %s", "icsUrl")

	entries := sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hydrated icsUrl", entries[0].Message)

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Persist", warnings[0].Subsystem)
	assert.ErrorIs(t, warnings[0].Err, cause)
}
