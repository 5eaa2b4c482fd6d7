package infrastructure

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JaimeStill/autolot/internal/config"
)

// logOutput writes to the console and, when a log file is configured,
// to a size-rotated file as well.
type logOutput struct {
	io.Writer
	file *lumberjack.Logger
}

func newLogOutput(cfg *config.LoggingConfig, console io.Writer) *logOutput {
	if cfg.File == "" {
		return &logOutput{Writer: console}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	return &logOutput{
		Writer: io.MultiWriter(console, file),
		file:   file,
	}
}

// Close closes the rotating log file, if any.
func (o *logOutput) Close() error {
	if o.file == nil {
		return nil
	}
	return o.file.Close()
}

func newLogger(cfg *config.LoggingConfig, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}
