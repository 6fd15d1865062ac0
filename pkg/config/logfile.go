package config

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter returns a rotating writer for the configured log file, or nil
// when file logging is off. The caller closes it.
func (l LoggingConfig) LogWriter() io.WriteCloser {
	if l.File == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		LocalTime:  true,
	}
}
