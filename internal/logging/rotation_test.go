package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logPath, []byte("initial content\n"), 0644); err != nil {
			t.Fatalf("failed to write initial content: %v", err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if rw.currentSize != int64(len("initial content\n")) {
			t.Errorf("currentSize = %d, want the existing file size", rw.currentSize)
		}
		if _, err := rw.Write([]byte("appended content\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		_ = rw.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), "initial content") || !strings.Contains(string(content), "appended content") {
			t.Errorf("unexpected content: %q", content)
		}
	})
}

func TestRotatingWriterRotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()
	rw.maxSizeB = 16 // force rotation with small writes

	for i := 0; i < 4; i++ {
		if _, err := rw.Write([]byte(fmt.Sprintf("line-%d-padding\n", i))); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	current, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if string(current) != "line-3-padding\n" {
		t.Errorf("current file = %q, want the last line only", current)
	}

	newest, err := os.ReadFile(logPath + ".1")
	if err != nil {
		t.Fatalf("read .1: %v", err)
	}
	if string(newest) != "line-2-padding\n" {
		t.Errorf(".1 = %q, want line-2", newest)
	}
	if _, err := os.Stat(logPath + ".2"); err != nil {
		t.Errorf(".2 should exist: %v", err)
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Errorf(".3 should have been dropped, stat err = %v", err)
	}
}

func TestRotatingWriterNoBackups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()
	rw.maxSizeB = 8

	_, _ = rw.Write([]byte("first-line\n"))
	_, _ = rw.Write([]byte("second-line\n"))

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Errorf("no backup expected, stat err = %v", err)
	}
	content, _ := os.ReadFile(logPath)
	if string(content) != "second-line\n" {
		t.Errorf("content = %q", content)
	}
}

func TestRotatingWriterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "test.log"), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}
	logger.WithRun("r1").Info("test message", "key", "value")
	_ = logger.Close()

	entries := readEntries(t, filepath.Join(dir, LogFileName))
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["msg"] != "test message" || entries[0]["run_id"] != "r1" {
		t.Errorf("unexpected entry: %v", entries[0])
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 10 || cfg.MaxBackups != 3 {
		t.Errorf("DefaultRotationConfig() = %+v", cfg)
	}
}
