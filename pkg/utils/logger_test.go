package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(false) returned nil logger")
		}
		_ = logger.Sync()
	})
}

func TestNewFileLogger_writesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kioku.log")
	logger, err := NewFileLogger(false, LogFileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Info("reindex finished")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "reindex finished") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestNewFileLogger_emptyPath(t *testing.T) {
	logger, err := NewFileLogger(true, LogFileOptions{})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("nil logger")
	}
}
