package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var levelVar = new(slog.LevelVar)

// output lets SetOutput swap the destination while other goroutines log.
var output = &switchWriter{w: os.Stderr}

var L = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: levelVar}))

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// SetOutput redirects the global logger. Safe to call while logging. The TUI
// owns the terminal, so it points logs at a file or io.Discard before starting.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	output.w = w
	output.mu.Unlock()
}
