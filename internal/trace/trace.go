package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level grades a trace event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one structured trace line persisted as JSON.
type Event struct {
	Timestamp string         `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger appends pipeline events to a JSONL file. It is observability only:
// every method is safe on a nil receiver and swallows write errors, so a
// missing or unwritable log directory never affects pipeline results.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates a logger writing to path. An empty path yields a nil logger,
// which discards everything.
func New(path string) *Logger {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(trimmed), 0o755)
	return &Logger{path: trimmed}
}

// Log writes one event line.
func (l *Logger) Log(level Level, message string, fields map[string]any) {
	if l == nil || strings.TrimSpace(message) == "" {
		return
	}
	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   strings.TrimSpace(message),
	}
	if len(fields) > 0 {
		event.Fields = fields
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

func (l *Logger) Debug(message string, fields map[string]any) { l.Log(LevelDebug, message, fields) }
func (l *Logger) Info(message string, fields map[string]any)  { l.Log(LevelInfo, message, fields) }
func (l *Logger) Warn(message string, fields map[string]any)  { l.Log(LevelWarn, message, fields) }
func (l *Logger) Error(message string, fields map[string]any) { l.Log(LevelError, message, fields) }

// Read returns all events in the file, skipping malformed lines.
func (l *Logger) Read() ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var events []Event
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
