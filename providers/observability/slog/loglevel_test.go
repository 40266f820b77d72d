package slog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestParseLogLevel covers the accepted spellings and the error path.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{" info ", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"Warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestGetLogLevelFromEnv verifies the prefixed variable wins over LOG_LEVEL.
func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("MATHCHAT_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevelFromEnv(); got != slog.LevelWarn {
		t.Errorf("default level = %v, want WARN", got)
	}

	t.Setenv("LOG_LEVEL", "info")
	if got := GetLogLevelFromEnv(); got != slog.LevelInfo {
		t.Errorf("LOG_LEVEL level = %v, want INFO", got)
	}

	t.Setenv("MATHCHAT_LOG_LEVEL", "debug")
	if got := GetLogLevelFromEnv(); got != slog.LevelDebug {
		t.Errorf("MATHCHAT_LOG_LEVEL level = %v, want DEBUG", got)
	}
}

// TestLogLevelString verifies the names match ParseLogLevel input.
func TestLogLevelString(t *testing.T) {
	for _, name := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
		level, err := ParseLogLevel(name)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q): %v", name, err)
		}
		if got := LogLevelString(level); got != name {
			t.Errorf("LogLevelString(%v) = %q, want %q", level, got, name)
		}
	}
}

// TestNewLogger verifies both formats and the TRACE level label.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, LevelTrace, "json", false)
	if err != nil {
		t.Fatalf("NewLogger(json): %v", err)
	}
	logger.Log(t.Context(), LevelTrace, "hello")
	if !strings.Contains(buf.String(), `"level":"TRACE"`) {
		t.Errorf("expected TRACE label in JSON output, got: %s", buf.String())
	}

	buf.Reset()
	logger, err = NewLogger(&buf, slog.LevelInfo, "text", false)
	if err != nil {
		t.Fatalf("NewLogger(text): %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("unexpected text output: %s", buf.String())
	}

	buf.Reset()
	logger, err = NewLogger(&buf, slog.LevelInfo, "", false)
	if err != nil {
		t.Fatalf("NewLogger(default): %v", err)
	}
	logger.Warn("compact", "k", "v")
	if !strings.Contains(buf.String(), ` WARN compact → {"k":"v"}`) {
		t.Errorf("expected compact output by default, got: %s", buf.String())
	}

	if _, err := NewLogger(&buf, slog.LevelInfo, "xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}
