package slogger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(opts HandlerOptions) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	opts.Output = &buf
	if opts.Level == nil {
		opts.Level = slog.LevelDebug
	}
	return NewWithOptions(opts), &buf
}

func TestIncludeFilters(t *testing.T) {
	tests := []struct {
		name      string
		filters   []string
		attrs     []any
		shouldLog bool
	}{
		{"err=* logs non-nil error", []string{"err=*"}, []any{"err", "timeout", "user", "john"}, true},
		{"err=* skips nil error", []string{"err=*"}, []any{"err", nil, "user", "john"}, false},
		{"err=* skips record without error", []string{"err=*"}, []any{"user", "john"}, false},
		{"key only matches nil value", []string{"err"}, []any{"err", nil}, true},
		{"prefix", []string{"db_*"}, []any{"db_name", "users"}, true},
		{"prefix without match", []string{"db_*"}, []any{"user", "john"}, false},
		{"any of several", []string{"err=*", "warn=*"}, []any{"err", "failed"}, true},
		{"value with slashes", []string{"path=/mnt/*"}, []any{"path", "/mnt/assets/logo.png"}, true},
		{"braces", []string{"op={mount,unmount}"}, []any{"op", "unmount"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(HandlerOptions{Include: tt.filters})
			logger.Info("test", tt.attrs...)
			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("logged=%v, want %v: %q", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestExcludeFilters(t *testing.T) {
	tests := []struct {
		name      string
		filters   []string
		attrs     []any
		shouldLog bool
	}{
		{"prefix", []string{"debug_*"}, []any{"debug_flag", true, "user", "john"}, false},
		{"no match", []string{"debug_*"}, []any{"user", "john"}, true},
		{"several", []string{"debug_*", "trace_*"}, []any{"trace_id", "123"}, false},
		{"exact value", []string{"level=debug"}, []any{"level", "debug"}, false},
		{"other value", []string{"level=debug"}, []any{"level", "info"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(HandlerOptions{Exclude: tt.filters})
			logger.Info("test", tt.attrs...)
			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("logged=%v, want %v: %q", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestFormat(t *testing.T) {
	logger, buf := newTestLogger(HandlerOptions{})
	logger.With("vfs", "assets").WithGroup("req").Debug("mount", "point", "/mnt")
	out := buf.String()
	for _, want := range []string{"DEBUG", "slogger: mount", "vfs=assets", "req.point=/mnt", "slogger_test.go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors written to a non-terminal")
	}
}

func TestLevel(t *testing.T) {
	logger, buf := newTestLogger(HandlerOptions{Level: slog.LevelWarn})
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn not logged: %q", buf.String())
	}

	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
