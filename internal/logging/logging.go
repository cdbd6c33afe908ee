// Package logging builds the *log.Logger shared by jsyml commands.
//
// Nothing is logged by default. Verbose mode writes to stderr; a log file is
// rotated by lumberjack so long-running watch sessions stay bounded.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Prefix starts every log line.
const Prefix = "[jsyml] "

// Config holds configuration for the logger.
type Config struct {
	// Verbose mirrors log output to stderr
	Verbose bool

	// File is an optional log file path, rotated when it grows past MaxSizeMB
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Stderr is where verbose output goes. Defaults to os.Stderr.
	Stderr io.Writer
}

// DefaultConfig returns a quiet logger configuration.
func DefaultConfig() Config {
	return Config{
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// New creates the logger described by cfg. The returned cleanup closes the
// log file, if any, and is always safe to call.
func New(cfg Config) (*log.Logger, func() error) {
	var writers []io.Writer
	cleanup := func() error { return nil }

	if cfg.Verbose {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		writers = append(writers, rotator)
		cleanup = rotator.Close
	}

	switch len(writers) {
	case 0:
		return log.New(io.Discard, Prefix, 0), cleanup
	case 1:
		return log.New(writers[0], Prefix, log.LstdFlags), cleanup
	default:
		return log.New(io.MultiWriter(writers...), Prefix, log.LstdFlags), cleanup
	}
}
