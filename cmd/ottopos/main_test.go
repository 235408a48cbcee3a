package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/ottopos/internal/config"
)

func TestOpenLogFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ottopos.log")
	f, err := openLogFile(path)
	if err != nil {
		t.Fatalf("openLogFile: %v", err)
	}
	f.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestOpenLogFileDirectoryFailure(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := openLogFile(filepath.Join(blocker, "sub", "ottopos.log")); err == nil {
		t.Fatal("expected an error when the log directory cannot be created")
	}
}

func TestOpenLoggerFallsBackToStderr(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	os.WriteFile(blocker, nil, 0o644)

	cfg := config.Default()
	cfg.Log.File = filepath.Join(blocker, "sub", "ottopos.log")
	log, closeLog := openLogger(cfg)
	defer closeLog()
	if log == nil {
		t.Fatal("expected a logger even when the file cannot be opened")
	}
}
