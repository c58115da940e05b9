// Package cli implements the graphbuilder command-line interface.
//
// Graphs live in a document store (a directory of JSON files by default, or
// Redis or MongoDB when configured). Commands fall into three groups:
//   - document commands: new, import, export, list, rm, show, validate
//   - single edits: add, move, connect, disconnect, delete
//   - interactive and output: edit (terminal editor), serve (HTTP API), render
//
// Every edit goes through a session, so the CLI enforces the same rules as
// the editor and the HTTP API.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Render, cache
// and HTTP events reach the log through the observability hooks installed
// when the config is loaded.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered 12 nodes (34ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports observability events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRenderStart(_ context.Context, format string, nodeCount int) {
	h.logger.Debug("render started", "format", format, "nodes", nodeCount)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "duration", d, "err", err)
		return
	}
	h.logger.Debug("render complete", "format", format, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(context.Context, string, string) {}

// OnResponse surfaces server errors; the server logs every request at debug.
func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	if status >= 500 {
		h.logger.Warn("request failed", "method", method, "path", path, "status", status, "duration", d)
	}
}
