package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolute.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "true")
	t.Setenv("RESOLUTE_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/resolute.db" {
		t.Errorf("Database.Path: got %q", cfg.Database.Path)
	}
	if cfg.Classifier.Model != "gpt-4o-mini" {
		t.Errorf("Model: got %q", cfg.Classifier.Model)
	}
	if time.Duration(cfg.Worker.ProbeInterval) != 30*time.Second {
		t.Errorf("ProbeInterval: got %v", time.Duration(cfg.Worker.ProbeInterval))
	}
	if time.Duration(cfg.Worker.BackupInterval) != 24*time.Hour {
		t.Errorf("BackupInterval: got %v", time.Duration(cfg.Worker.BackupInterval))
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log: got %+v", cfg.Log)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "true")

	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 45s
database:
  path: /tmp/custom.db
classifier:
  model: gpt-4o
worker:
  probe_interval: 10s
log:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port: got %d, want 9090", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ReadTimeout) != 45*time.Second {
		t.Errorf("ReadTimeout: got %v", time.Duration(cfg.Server.ReadTimeout))
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Database.Path: got %q", cfg.Database.Path)
	}
	if cfg.Classifier.Model != "gpt-4o" {
		t.Errorf("Model: got %q", cfg.Classifier.Model)
	}
	if time.Duration(cfg.Worker.ProbeInterval) != 10*time.Second {
		t.Errorf("ProbeInterval: got %v", time.Duration(cfg.Worker.ProbeInterval))
	}
	// Unset keys keep their defaults.
	if time.Duration(cfg.Server.WriteTimeout) != 30*time.Second {
		t.Errorf("WriteTimeout default lost: %v", time.Duration(cfg.Server.WriteTimeout))
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q", cfg.Log.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "true")
	t.Setenv("RESOLUTE_PORT", "7070")
	t.Setenv("RESOLUTE_DB_PATH", "/tmp/env.db")
	t.Setenv("RESOLUTE_CLASSIFIER_MODEL", "gpt-4.1-mini")
	t.Setenv("RESOLUTE_PROBE_INTERVAL", "1m")

	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/file.db
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Port: got %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path: got %q, want env override", cfg.Database.Path)
	}
	if cfg.Classifier.Model != "gpt-4.1-mini" {
		t.Errorf("Model: got %q", cfg.Classifier.Model)
	}
	if time.Duration(cfg.Worker.ProbeInterval) != time.Minute {
		t.Errorf("ProbeInterval: got %v", time.Duration(cfg.Worker.ProbeInterval))
	}
}

func TestValidate_RequiresKeys(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RESOLUTE_API_KEY", "")
	t.Setenv("RESOLUTE_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing OPENAI_API_KEY error, got %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RESOLUTE_API_KEY") {
		t.Fatalf("expected missing RESOLUTE_API_KEY error, got %v", err)
	}

	t.Setenv("RESOLUTE_API_KEY", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed with both keys set: %v", err)
	}
	if cfg.Classifier.APIKey != "sk-test" || cfg.Auth.APIKey != "secret" {
		t.Errorf("keys not applied: %+v", cfg)
	}
}

func TestValidate_DevModeSkipsKeys(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "true")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RESOLUTE_API_KEY", "")
	t.Setenv("RESOLUTE_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err != nil {
		t.Fatalf("Load failed in dev mode: %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Setenv("RESOLUTE_DEV_MODE", "true")

	path := writeConfig(t, `
server:
  shutdown_timeout: bogus
`)

	if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("expected invalid duration error, got %v", err)
	}
}
