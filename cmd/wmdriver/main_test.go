package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ir_sensitivity: 2\nlog_level: info\nhidraw: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var f flags
	cmd := newRootCmd(&f)
	if err := cmd.ParseFlags([]string{"--config", path, "--sensitivity", "5", "--gamepad", "classic"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	// flags override the file, unset flags leave it alone
	if cfg.IRSensitivity != 5 || cfg.LogLevel != "info" || !cfg.Hidraw || cfg.Bluez || cfg.Gamepad != "classic" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoadConfigBadLevel(t *testing.T) {
	var f flags
	cmd := newRootCmd(&f)
	args := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "chatty"}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd, f); err == nil {
		t.Errorf("bad log level accepted")
	}
}
