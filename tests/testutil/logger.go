package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/minioprov/internal/logging"
)

// TestLogger captures log output for validation in tests.
//
// Debug lines are captured and colors are off, so assertions can match the
// plain glyphs.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	r := &reconcile.Reconciler{Logger: logger.Logger, ...}
//	logger.AssertContains(t, "Created bucket 'logs'")
//	logger.AssertNotContains(t, "s3cr3t")
type TestLogger struct {
	*logging.Logger
	buf *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger creates a debug-enabled logger writing to memory
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	buf := &syncBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, true, true),
		buf:    buf,
	}
}

// GetOutput returns everything logged so far
func (l *TestLogger) GetOutput() string {
	return l.buf.String()
}

// Lines returns the logged lines without the trailing empty line
func (l *TestLogger) Lines() []string {
	out := strings.TrimRight(l.GetOutput(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// AssertContains checks that substr was logged
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains checks that substr was never logged
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Expected log output NOT to contain %q", substr)
}

// AssertLogCount checks how many lines start with the glyph for level
// ("info", "warn", "error" or "debug").
func (l *TestLogger) AssertLogCount(t *testing.T, level string, count int) {
	t.Helper()

	prefix := map[string]string{
		"info":  "✓ ",
		"warn":  "⚠ ",
		"error": "✗ ",
		"debug": "[DEBUG] ",
	}[level]

	n := 0
	for _, line := range l.Lines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	assert.Equal(t, count, n, "Expected %d %s lines, got %d:\n%s", count, level, n, l.GetOutput())
}
