// Package logging configures the process-wide zap logger
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where and how much is logged
type Options struct {
	// File, when set, receives JSON logs instead of stderr. The TUI owns the terminal, so it always
	// logs to a file.
	File  string
	Level zapcore.Level
}

// Setup builds a logger from opts and installs it as the global logger. The returned function
// flushes buffered entries and restores the previous globals.
func Setup(opts Options) (func(), error) {
	var logger *zap.Logger
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(opts.Level)
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build file logger: %w", err)
		}
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stderr),
			opts.Level,
		)
		logger = zap.New(core)
	}

	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}
