// Package logging builds the zap logger used by the formstate CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the logger's level, encoding and sink.
type Config struct {
	Level       string
	File        string
	Development bool
	// MaxSizeMB, MaxBackups and MaxAgeDays tune file rotation when File is set.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger and a close function flushing and releasing the sink.
// Without a File, logs go to stderr.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if cfg.Level == "" {
		level, err = zapcore.InfoLevel, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}

	var encoderCfg zapcore.EncoderConfig
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	if file := strings.TrimSpace(cfg.File); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    orDefault(cfg.MaxSizeMB, 15),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		}
		sink, closer = zapcore.AddSync(rotator), rotator
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)))
	closeFn := func() error {
		_ = logger.Sync()
		if closer != nil {
			return closer.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
