// Package logging builds the process logger. The TUI owns stdout, so logs
// go to a file under the config directory instead of the terminal.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production-encoded logger writing to path. An empty path
// returns a no-op logger, which is also the right fallback when the log
// file cannot be opened: the client must keep working without logs.
func New(path, level string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zap.NewNop(), fmt.Errorf("logging.New: create log dir: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), fmt.Errorf("logging.New: %w", err)
	}
	return logger, nil
}
