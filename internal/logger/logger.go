// Package logger holds the process-wide slog logger used by the OpenComp
// binaries. Logging is host-side diagnostics only; anything the kernel wants
// a user to see goes through the console collaborator, not through here.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// L is the global logger. It discards everything until Init is called, so
// library code can log unconditionally.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// Options configures logger initialization.
type Options struct {
	// Enabled turns logging on. When false all output is discarded.
	Enabled bool
	// Path is the log file. Empty means stderr.
	Path string
	// Level is the minimum level. Defaults to Info.
	Level slog.Level
}

// Init configures the global logger. Call from main before any log output.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	var sink io.Writer = os.Stderr
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		sink = f
	}

	L = slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: opts.Level}))
	return nil
}
