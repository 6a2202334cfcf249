package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where diagnostics go
type Config struct {
	Level      string `toml:"level" env:"LOG_LEVEL"`               // debug, info, warn, error
	File       string `toml:"file" env:"LOG_FILE"`                 // Rotated log file, empty for stderr only
	MaxSizeMB  int    `toml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`   // Size of a single log file before rotation
	MaxBackups int    `toml:"max_backups" env:"LOG_MAX_BACKUPS"`   // Rotated files to keep
	MaxAgeDays int    `toml:"max_age_days" env:"LOG_MAX_AGE_DAYS"` // Days to keep rotated files
}

// New builds a console logger writing to stderr and, when cfg.File is set,
// to a size-rotated file as well.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if cfg.File == "" && term.IsTerminal(int(os.Stderr.Fd())) {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory with %w", err)
		}
		output = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 16),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		})
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(output),
		level,
	)
	return zap.New(core), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
