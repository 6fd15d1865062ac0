// Package cli implements the spatialgen command-line interface.
//
// The CLI composes the library packages into commands: single renders,
// batch runs with resume and sharding, dry-run plans, catalog inspection,
// cache management and a small HTTP browser for finished datasets. It is
// built on cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - render: Render one combination
//   - batch: Enumerate and render a dataset
//   - plan: Print the combination space without rendering
//   - catalog: List or interactively pick assets
//   - cache: Manage the completion cache
//   - serve: Browse a rendered dataset over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context. A rotating log file is added when the
// config sets [logging] file.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered 240 images (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// every returns a reporter that logs at most once per interval. The last
// call (done == total) always logs.
func (p *progress) every(interval time.Duration) func(done, total int, what string) {
	var last time.Time
	return func(done, total int, what string) {
		now := time.Now()
		if done != total && now.Sub(last) < interval {
			return
		}
		last = now
		p.logger.Info("progress", "done", done, "total", total, "last", what, "elapsed", now.Sub(p.start).Round(time.Second))
	}
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
