package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hub.Addr != ":8080" {
		t.Fatalf("expected default hub addr, got %q", cfg.Hub.Addr)
	}
	if cfg.Hub.GitHub.WorkflowFile != "update_dashboard.yml" {
		t.Fatalf("expected default workflow file, got %q", cfg.Hub.GitHub.WorkflowFile)
	}
}

func TestLoadRejectsMissingConfigVersion(t *testing.T) {
	path := writeConfig(t, `
action:
  endpoint: https://example.com/fn
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsInvalidEndpoint(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
action:
  endpoint: example.com/fn
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "action.endpoint") {
		t.Fatalf("expected endpoint error, got %v", err)
	}
}

func TestLoadExpandsEnvInValues(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "ghp_secret")
	path := writeConfig(t, `
config_version: 1
hub:
  github:
    token: $TEST_GH_TOKEN
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hub.GitHub.Token != "ghp_secret" {
		t.Fatalf("expected expanded token, got %q", cfg.Hub.GitHub.Token)
	}
}

func TestExpandEnvKeepsMissingVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
