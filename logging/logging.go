// Package logging builds the structured loggers used by the commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the logger for one-shot commands. Human-facing progress is
// printed separately, so only warnings and errors are logged unless verbose
// is set.
func New(verbose bool) (*zap.Logger, error) {
	return build(zapcore.WarnLevel, verbose)
}

// NewServer returns the logger for long-running commands, which log every
// request at info level.
func NewServer(verbose bool) (*zap.Logger, error) {
	return build(zapcore.InfoLevel, verbose)
}

func build(level zapcore.Level, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
