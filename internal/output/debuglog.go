package output

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultDebugLogSize is the default size of the debug log, in characters.
const DefaultDebugLogSize = 8000

// FileLogger receives a copy of every debug log line.
// Satisfied by *config.Logger.
type FileLogger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// DebugLog is a bounded, newest-first log of what the application did.
// It also serves as the LogWriter handed to the services.
type DebugLog struct {
	mu    sync.Mutex
	text  string
	limit int
	file  FileLogger
	now   func() time.Time
}

// NewDebugLog creates a debug log holding at most limit characters.
// file may be nil.
func NewDebugLog(limit int, file FileLogger) *DebugLog {
	if limit <= 0 {
		limit = DefaultDebugLogSize
	}
	return &DebugLog{limit: limit, file: file, now: time.Now}
}

// Append adds "[HH:MM:SS] message" to the top of the log, followed by data
// as indented JSON when given.
func (d *DebugLog) Append(message string, data ...any) {
	line := fmt.Sprintf("[%s] %s", d.now().UTC().Format(time.TimeOnly), message)
	for _, v := range data {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			line += " " + fmt.Sprint(v)
			continue
		}
		line += " " + string(b)
	}

	d.mu.Lock()
	d.text = truncateRunes(line+"\n"+d.text, d.limit)
	d.mu.Unlock()
}

// Debug implements the services' LogWriter.
func (d *DebugLog) Debug(format string, args ...any) {
	d.Append(fmt.Sprintf(format, args...))
	if d.file != nil {
		d.file.Debug(format, args...)
	}
}

// Error implements the services' LogWriter.
func (d *DebugLog) Error(format string, args ...any) {
	d.Append("ERROR " + fmt.Sprintf(format, args...))
	if d.file != nil {
		d.file.Error(format, args...)
	}
}

// String returns the log, newest line first.
func (d *DebugLog) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
