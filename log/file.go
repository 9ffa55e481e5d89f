package log

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger creates a Logger that writes JSON at the given minimum
// level to a size-rotated file at path. The returned function closes the
// file and must be called once logging is done.
func NewFileLogger(path string, level slog.Level) (Logger, func() error) {
	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	slogger := slog.New(slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
		Level: level,
	}))
	return Logger{slogger: slogger}, fileWriter.Close
}
