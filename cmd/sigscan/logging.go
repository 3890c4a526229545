package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type logConfig struct {
	// Level is one of debug, info, warn or error.
	Level string

	// Pretty enables human-readable console output.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

func newLogger(cfg logConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
