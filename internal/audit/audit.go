// Package audit appends workflow mutations to a plain text log file.
package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Log levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Outcomes
const (
	StatusSuccess = "Success"
	StatusFail    = "Fail"
)

// Logger writes one line per workflow mutation attempt.
// Fields: timestamp (RFC3339) | level | operation | status | actor? | message?
type Logger struct {
	enabled bool
	path    string
	mu      sync.Mutex
	now     func() time.Time
}

// New creates a logger writing to path. A disabled logger drops everything.
func New(enabled bool, path string) *Logger {
	return &Logger{enabled: enabled, path: path, now: time.Now}
}

// Record appends an entry. Logging is best-effort and never fails the request.
func (l *Logger) Record(level string, operation string, status string, actor string, message string) {
	if l == nil || !l.enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	ts := l.now().UTC().Format(time.RFC3339)
	parts := []string{ts, level, operation, status}
	if actor != "" {
		parts = append(parts, actor)
	}
	if message != "" {
		parts = append(parts, message)
	}
	line := strings.Join(parts, " | ") + "\n"

	// best-effort: ignore write errors
	_, _ = f.WriteString(line)
}
