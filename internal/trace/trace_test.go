package trace

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestLogAndReadBack(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "trace.jsonl"))
	l.Info("pipeline started", map[string]any{"root": "/tmp/repo"})
	l.Warn("degraded", nil)

	events, err := l.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Level != LevelInfo || events[0].Message != "pipeline started" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[0].Fields["root"] != "/tmp/repo" {
		t.Fatalf("fields lost: %+v", events[0].Fields)
	}
	if events[1].Level != LevelWarn {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("ignored", nil)
	l.Error("ignored", map[string]any{"k": "v"})
	events, err := l.Read()
	if err != nil || events != nil {
		t.Fatalf("nil logger must be inert, got %v %v", events, err)
	}
	if New("   ") != nil {
		t.Fatal("blank path must yield nil logger")
	}
}

func TestEmptyMessageDropped(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "trace.jsonl"))
	l.Info("  ", nil)
	events, err := l.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("blank message must be dropped, got %d events", len(events))
	}
}

func TestConcurrentWrites(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "trace.jsonl"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Info("event", nil)
		}()
	}
	wg.Wait()
	events, err := l.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 20 {
		t.Fatalf("got %d events, want 20", len(events))
	}
}
