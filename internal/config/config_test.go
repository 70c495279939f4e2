package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KOLLATOR_DB_PATH", "")
	t.Setenv("KOLLATOR_LOG_LEVEL", "")
	t.Setenv("KOLLATOR_OUTPUT", "")
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.Output != "yaml" {
		t.Errorf("output = %q, want yaml", cfg.Output)
	}
	if cfg.DBPath == "" {
		t.Error("expected a default db path")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KOLLATOR_DB_PATH", "/tmp/override.db")
	t.Setenv("KOLLATOR_OUTPUT", "json")
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("db path = %q, want env override", cfg.DBPath)
	}
	if cfg.Output != "json" {
		t.Errorf("output = %q, want json", cfg.Output)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KOLLATOR_DB_PATH", "")
	t.Setenv("KOLLATOR_LOG_LEVEL", "")
	t.Setenv("KOLLATOR_OUTPUT", "")
	chdir(t, t.TempDir())

	configDir := filepath.Join(home, ".config", "kollator")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	yaml := "db_path: /data/kollator.db\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/data/kollator.db" {
		t.Errorf("db path = %q, want yaml value", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestEnvBeatsYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KOLLATOR_DB_PATH", "/env/wins.db")
	chdir(t, t.TempDir())

	configDir := filepath.Join(home, ".config", "kollator")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("db_path: /yaml/loses.db\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/env/wins.db" {
		t.Errorf("db path = %q, want env to win", cfg.DBPath)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}
