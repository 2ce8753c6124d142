package goflat

import (
	"context"
	"log/slog"
	"sync"
)

// LevelTrace sits below slog.LevelDebug and carries per-node reconstruction
// decisions.
const LevelTrace = slog.LevelDebug - 4

var (
	loggerMu      sync.RWMutex
	currentLogger = slog.New(slog.DiscardHandler)
)

// SetLogger installs the logger used for trace output; nil restores the
// discarding default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	loggerMu.Lock()
	currentLogger = l
	loggerMu.Unlock()
}

func getLogger() *slog.Logger {
	loggerMu.RLock()
	l := currentLogger
	loggerMu.RUnlock()
	return l
}

// tracer caches the logger and whether trace output is enabled for one call,
// so disabled tracing costs a bool check per node.
type tracer struct {
	log *slog.Logger
	on  bool
}

func newTracer() tracer {
	l := getLogger()
	return tracer{log: l, on: l.Enabled(context.Background(), LevelTrace)}
}

func (t tracer) trace(msg string, args ...any) {
	if !t.on {
		return
	}
	t.log.Log(context.Background(), LevelTrace, msg, args...)
}
