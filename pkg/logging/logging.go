// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package logging wires zerolog for the CLI and for component loggers.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logWriter is where ConfigureGlobalLogging sends output.
var logWriter io.Writer

// stdLogWriter forwards the standard log package into zerolog at debug
// level. Lines carrying the date and short-file prefix are split into
// fields; anything else passes through as the message.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	message := strings.TrimSuffix(string(p), "\n")

	// date, clock, "file.go:N:", text
	parts := strings.SplitN(message, " ", 4)
	if len(parts) == 4 {
		if ts, err := time.Parse("2006/01/02 15:04:05", parts[0]+" "+parts[1]); err == nil {
			w.logger.Debug().
				Str("file", strings.TrimSuffix(parts[2], ":")).
				Time("time", ts).
				Msg(parts[3])
			return len(p), nil
		}
	}
	w.logger.Debug().Msg(message)
	return len(p), nil
}

// Errors only until Setup runs.
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = consoleWriter(os.Stderr)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

// Options selects the global log output.
type Options struct {
	Level  string
	Format string // "text" (console) or "json"
	File   string // append to this file instead of stderr
}

// Setup configures global logging from Options. The returned closer
// releases the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if strings.EqualFold(opts.Format, "json") {
		SetLogWriter(out)
	} else {
		SetLogWriter(consoleWriter(out))
	}
	if err := ConfigureGlobalLogging(opts.Level); err != nil {
		_ = closer.Close()
		return nil, err
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureGlobalLogging rebuilds log.Logger at levelStr on the current
// writer. Debug and below also record the caller.
func ConfigureGlobalLogging(levelStr string) error {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	w := getLogWriter()

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: WithLevelOverride(log.Logger, zerolog.DebugLevel)})

	return nil
}

// parseLogLevel falls back to error for empty or unknown names.
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("unknown log level, using error")
		return zerolog.ErrorLevel
	}
	return level
}

func getLogWriter() io.Writer {
	return logWriter
}

// SetLogWriter replaces the output used by the next ConfigureGlobalLogging.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// LevelOverrideHook stamps NoLevel events with targetLevel and drops
// everything when the logger's own level is above targetLevel.
type LevelOverrideHook struct {
	minSeverity zerolog.Level
	targetLevel zerolog.Level
}

func NewLevelOverrideHook(minSeverity, targetLevel zerolog.Level) *LevelOverrideHook {
	return &LevelOverrideHook{
		minSeverity: minSeverity,
		targetLevel: targetLevel,
	}
}

// Run implements zerolog.Hook.
func (h LevelOverrideHook) Run(e *zerolog.Event, currentLevel zerolog.Level, _ string) {
	if h.minSeverity > h.targetLevel {
		e.Discard()
		return
	}

	if currentLevel == zerolog.NoLevel {
		e.Str("level", h.targetLevel.String())
	}
}

// WithLevelOverride attaches a LevelOverrideHook keyed on logger's level.
func WithLevelOverride(logger zerolog.Logger, targetLevel zerolog.Level) zerolog.Logger {
	return logger.Hook(NewLevelOverrideHook(logger.GetLevel(), targetLevel))
}
