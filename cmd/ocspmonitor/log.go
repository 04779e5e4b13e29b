package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds a zerolog.Logger from cfg. When neither console nor
// file output is configured, it returns a no-op logger rather than
// erroring, so the monitor can still run with logging off.
func newLogger(cfg logConfig) (zerolog.Logger, func(), error) {
	closeFunc := func() {}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if cfg.File != "" {
		f, err := os.OpenFile(filepath.Clean(cfg.File), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), closeFunc, fmt.Errorf("failed to open log file: %w", err)
		}
		closeFunc = func() { _ = f.Close() }
		writers = append(writers, f)
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closeFunc, nil
	}

	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	return logger, closeFunc, nil
}
