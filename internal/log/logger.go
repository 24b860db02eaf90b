// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
	Version string    // optional build version attached to every log entry
}

var (
	mu      sync.RWMutex
	base    zerolog.Logger
	writer  io.Writer = os.Stdout
	service string
	version string
)

// Configure (re)initialises the global zerolog logger. Empty fields keep their
// previous value, so the daemon can start with safe defaults and re-apply the
// level and identity once config is loaded.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(resolveLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Output != nil {
		writer = cfg.Output
	}
	if cfg.Service != "" {
		service = cfg.Service
	}
	if service == "" {
		service = os.Getenv("LOG_SERVICE")
		if service == "" {
			service = "boomctl"
		}
	}
	if cfg.Version != "" {
		version = cfg.Version
	}
	if version == "" {
		version = os.Getenv("VERSION")
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// SetLevel changes the global level without touching output or identity.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(resolveLevel(level))
}

func resolveLevel(level string) zerolog.Level {
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			return parsed
		}
	} else if env := os.Getenv("LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			return parsed
		}
	}
	return zerolog.InfoLevel
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := logger().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}

func init() {
	Configure(Config{})
}
