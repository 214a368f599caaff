package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Buffer is a goroutine-safe io.Writer that collects JSON log lines. Tests
// use it to assert on diagnostics that are logged rather than returned.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes each non-empty line as a JSON object. Lines that are not
// valid JSON are skipped.
func (b *Buffer) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err == nil {
			entries = append(entries, m)
		}
	}
	return entries
}

// HasMessage reports whether any entry has the given msg at the given level.
func (b *Buffer) HasMessage(level slog.Level, msg string) bool {
	for _, e := range b.Entries() {
		if e["msg"] == msg && e["level"] == level.String() {
			return true
		}
	}
	return false
}

// NewBufferLogger returns a debug-level JSON logger writing into a new Buffer.
func NewBufferLogger() (*slog.Logger, *Buffer) {
	buf := &Buffer{}
	l := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return l, buf
}
