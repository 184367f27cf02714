package logger

import (
	"log/slog"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"DEBUG":     {Slog: slog.LevelDebug, Zap: zapcore.DebugLevel},
		"info":      {Slog: slog.LevelInfo, Zap: zapcore.InfoLevel},
		" Warning ": {Slog: slog.LevelWarn, Zap: zapcore.WarnLevel},
		"warn":      {Slog: slog.LevelWarn, Zap: zapcore.WarnLevel},
		"ERROR":     {Slog: slog.LevelError, Zap: zapcore.ErrorLevel},
		"critical":  {Slog: slog.LevelError + 4, Zap: zapcore.FatalLevel},
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestParseLevelUnknown(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewSetsPackageLogger(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	lvl, _ := ParseLevel("WARNING")
	z, err := New(lvl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if z.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("zap logger should not enable info at WARNING")
	}
	if L == prev {
		t.Fatalf("package logger not replaced")
	}
}
