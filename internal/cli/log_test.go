package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	// Test that it can log
	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	// Small delay to ensure measurable duration
	time.Sleep(10 * time.Millisecond)

	prog.done("test completed")

	output := buf.String()
	if output == "" {
		t.Error("progress.done() should produce output")
	}

	// Should contain the message
	if !bytes.Contains(buf.Bytes(), []byte("test completed")) {
		t.Error("progress.done() output should contain message")
	}
}

func TestLogHooks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		level log.Level
		emit  func(*logHooks)
		want  string
	}{
		{"render complete", log.DebugLevel, func(h *logHooks) { h.OnRenderComplete(ctx, "svg", time.Millisecond, nil) }, "render complete"},
		{"render failed", log.DebugLevel, func(h *logHooks) { h.OnRenderComplete(ctx, "png", time.Millisecond, errors.New("boom")) }, "boom"},
		{"cache hit", log.DebugLevel, func(h *logHooks) { h.OnCacheHit(ctx, "artifact") }, "cache hit"},
		{"cache set", log.DebugLevel, func(h *logHooks) { h.OnCacheSet(ctx, "artifact", 42) }, "bytes=42"},
		{"server error", log.InfoLevel, func(h *logHooks) { h.OnResponse(ctx, "GET", "/graph", 500, time.Millisecond) }, "request failed"},
		{"debug hidden at info", log.InfoLevel, func(h *logHooks) { h.OnCacheMiss(ctx, "artifact") }, ""},
		{"success not logged", log.DebugLevel, func(h *logHooks) { h.OnResponse(ctx, "GET", "/graph", 200, time.Millisecond) }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(&logHooks{logger: newLogger(&buf, tt.level)})

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("unexpected output: %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}
