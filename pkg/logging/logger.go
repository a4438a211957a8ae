package logging

import (
	"io"
	"log/slog"
	"os"
)

// Options configures the process-wide logger used by the pipeline and its
// host. A nil *slog.Logger is never passed to core components; callers that
// don't care about logging should use New with default Options, which logs
// at Info level to stderr.
type Options struct {
	Level      slog.Level
	JSON       bool
	FilePath   string // optional; when set, logs are duplicated to a rotating file
	MaxSize    int64
	MaxBackups int
}

// New builds a *slog.Logger per Options. When FilePath is set, log records
// are written to both stderr and a RotatingFile, mirroring how a long-running
// host process keeps a bounded on-disk trail without losing console output.
func New(opts Options) (*slog.Logger, error) {
	var writer io.Writer = os.Stderr

	if opts.FilePath != "" {
		fileOpts := []Option{}
		if opts.MaxSize > 0 {
			fileOpts = append(fileOpts, WithMaxSize(opts.MaxSize))
		}
		if opts.MaxBackups > 0 {
			fileOpts = append(fileOpts, WithMaxBackups(opts.MaxBackups))
		}

		rf, err := NewRotatingFile(opts.FilePath, fileOpts...)
		if err != nil {
			return nil, err
		}
		writer = io.MultiWriter(os.Stderr, rf)
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler), nil
}
