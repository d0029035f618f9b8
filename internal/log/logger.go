// Package log provides the structured logger shared across the P.1203
// pipeline, following the teacher's convention of a process-global zerolog
// logger configured once at startup and retrieved via L().
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger.
type Config struct {
	Level   string    // zerolog level name; defaults to "info"
	Output  io.Writer // defaults to os.Stdout
	Quiet   bool      // suppress everything below Error, mirrors P1203Standalone(quiet=True)
	Service string    // attached to every log line; defaults to "p1203go"
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
)

// Configure installs the global logger. Safe to call more than once (e.g.
// in tests); the most recent call wins.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	if cfg.Quiet {
		level = zerolog.ErrorLevel
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	service := cfg.Service
	if service == "" {
		service = "p1203go"
	}

	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// L returns the current global logger. Configure must be called once at
// process startup (cmd/p1203 does this); library code only ever reads via
// L(), never mutates global logging state itself.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &base
}

func init() {
	// A usable default so library code and tests that never call Configure
	// still get readable output instead of a zero-value no-op logger.
	Configure(Config{})
}
