// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by runbox components.
//
// The terminal belongs to the UI, so logs go to a file by default. The level
// is fixed when the logger is built.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stderr is the log file value that selects standard error.
const Stderr = "stderr"

// Options configure New.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Path is the log file, or Stderr.
	Path string
	// Verbose forces debug level regardless of Level.
	Verbose bool
}

// Logger is the built logger. Close flushes it and releases the log file.
type Logger struct {
	*zap.Logger
	closeSink func()
}

// ParseLevel converts a level name into a zapcore.Level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// New builds a production JSON logger writing to opts.Path.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	path := opts.Path
	if path == "" {
		path = Stderr
	}
	if path != Stderr {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	logger := zap.New(core, zap.AddCaller(), zap.ErrorOutput(sink))
	return &Logger{Logger: logger, closeSink: closeSink}, nil
}

// Close flushes buffered entries and closes the log file. Sync errors on
// terminals are ignored.
func (l *Logger) Close() {
	_ = l.Sync()
	l.closeSink()
}
