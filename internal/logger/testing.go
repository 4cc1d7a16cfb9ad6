package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LogEntry represents a recorded log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// TestLogger records every entry so tests can assert on emitted logs.
type TestLogger struct {
	Logger
	logs *observer.ObservedLogs
}

// NewTestLogger creates a logger that records entries at debug level and above.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogger{
		Logger: &logger{zap: zap.New(core)},
		logs:   logs,
	}
}

// Entries returns all recorded entries in order.
func (t *TestLogger) Entries() []LogEntry {
	all := t.logs.All()
	entries := make([]LogEntry, 0, len(all))
	for _, e := range all {
		entries = append(entries, LogEntry{
			Level:   e.Level.String(),
			Message: e.Message,
			Fields:  e.ContextMap(),
		})
	}
	return entries
}

// Messages returns the messages recorded at the given level.
func (t *TestLogger) Messages(level string) []string {
	var out []string
	for _, e := range t.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Reset drops all recorded entries.
func (t *TestLogger) Reset() {
	t.logs.TakeAll()
}
