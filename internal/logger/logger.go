package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the package level logger used across the application.
var L = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Set replaces the default logger with the provided one.
func Set(l *slog.Logger) {
	if l != nil {
		L = l
	}
}

// Level is a minimum severity shared by the slog and zap loggers.
type Level struct {
	Slog slog.Level
	Zap  zapcore.Level
}

// ParseLevel maps a LOG_LEVEL value to a Level. Names are case-insensitive and
// include the WARNING and CRITICAL spellings used by existing deployments.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return Level{Slog: slog.LevelDebug, Zap: zapcore.DebugLevel}, nil
	case "INFO":
		return Level{Slog: slog.LevelInfo, Zap: zapcore.InfoLevel}, nil
	case "WARN", "WARNING":
		return Level{Slog: slog.LevelWarn, Zap: zapcore.WarnLevel}, nil
	case "ERROR":
		return Level{Slog: slog.LevelError, Zap: zapcore.ErrorLevel}, nil
	case "CRITICAL", "FATAL":
		return Level{Slog: slog.LevelError + 4, Zap: zapcore.FatalLevel}, nil
	default:
		return Level{}, fmt.Errorf("unknown log level %q", s)
	}
}

// New installs a slog logger at lvl as L and returns a zap logger at the same
// level for injection into services.
func New(lvl Level) (*zap.SugaredLogger, error) {
	Set(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl.Slog})))

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl.Zap)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}
