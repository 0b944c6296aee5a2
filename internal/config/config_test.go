package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gotr.yaml")
	content := `
test_root: ./suites
tick_interval: 250ms
log_level: debug
status_addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TestRoot != "./suites" {
		t.Errorf("TestRoot = %q", cfg.TestRoot)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", cfg.TickInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}

	// Defaults survive for unset fields.
	if cfg.Pattern != "*_test.sh" {
		t.Errorf("Pattern = %q, want default", cfg.Pattern)
	}
	if cfg.Interpreter != "/bin/sh" {
		t.Errorf("Interpreter = %q, want default", cfg.Interpreter)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestLoad_RejectsNonPositiveTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gotr.yaml")
	if err := os.WriteFile(path, []byte("tick_interval: -1s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a negative tick_interval")
	}
}
