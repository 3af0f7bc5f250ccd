package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{"debug", "debug", LevelDebug},
		{"info", "info", LevelInfo},
		{"warn", "warn", LevelWarn},
		{"error", "error", LevelError},
		{"uppercase", "DEBUG", LevelDebug},
		{"unknown defaults to info", "verbose", LevelInfo},
		{"empty defaults to info", "", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		logLevel   Level
		logFunc    func(*Logger)
		wantOutput bool
	}{
		{"debug at debug level", LevelDebug, func(l *Logger) { l.Debug("msg") }, true},
		{"debug at info level", LevelInfo, func(l *Logger) { l.Debug("msg") }, false},
		{"info at info level", LevelInfo, func(l *Logger) { l.Info("msg") }, true},
		{"info at warn level", LevelWarn, func(l *Logger) { l.Info("msg") }, false},
		{"warn at warn level", LevelWarn, func(l *Logger) { l.Warn("msg") }, true},
		{"warn at error level", LevelError, func(l *Logger) { l.Warn("msg") }, false},
		{"error at error level", LevelError, func(l *Logger) { l.Error("msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			logger := New(tt.logLevel, output)
			tt.logFunc(logger)

			got := output.Len() > 0
			if got != tt.wantOutput {
				t.Errorf("output written = %v, want %v (output: %q)", got, tt.wantOutput, output.String())
			}
		})
	}
}

func TestLoggerOutputFormat(t *testing.T) {
	output := &bytes.Buffer{}
	logger := New(LevelDebug, output)

	logger.Info("generated %d images", 3)

	line := output.String()
	if !strings.Contains(line, "[INFO]") {
		t.Errorf("output %q missing level tag", line)
	}
	if !strings.Contains(line, "generated 3 images") {
		t.Errorf("output %q missing formatted message", line)
	}
}

func TestLoggerSetLevel(t *testing.T) {
	output := &bytes.Buffer{}
	logger := New(LevelError, output)

	logger.Info("dropped")
	if output.Len() != 0 {
		t.Fatalf("unexpected output before SetLevel: %q", output.String())
	}

	logger.SetLevel(LevelInfo)
	if logger.GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), LevelInfo)
	}

	logger.Info("kept")
	if !strings.Contains(output.String(), "kept") {
		t.Errorf("output %q missing message after SetLevel", output.String())
	}
}
