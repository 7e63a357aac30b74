// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

reddit:
  client_id: "test-id"
  client_secret: "test-secret"
  user_agent: "eyecandy/1.0"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Reddit.ClientID != "test-id" {
		t.Errorf("Reddit.ClientID = %q, want %q", cfg.Reddit.ClientID, "test-id")
	}
	if cfg.Reddit.UserAgent != "eyecandy/1.0" {
		t.Errorf("Reddit.UserAgent = %q, want %q", cfg.Reddit.UserAgent, "eyecandy/1.0")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("EYECANDY_TEST_SECRET", "sekrit")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
reddit:
  client_id: "id"
  client_secret: "${EYECANDY_TEST_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reddit.ClientSecret != "sekrit" {
		t.Errorf("Reddit.ClientSecret = %q, want %q", cfg.Reddit.ClientSecret, "sekrit")
	}
}

func TestLoad_UnsetEnvVarExpandsEmpty(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
reddit:
  client_id: "id"
  client_secret: "${EYECANDY_DEFINITELY_UNSET_VAR}"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for empty client_secret")
	}
}

func TestLoad_MissingHTTPAddr(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
reddit:
  client_id: "id"
  client_secret: "secret"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "http_addr") {
		t.Fatalf("expected http_addr validation error, got %v", err)
	}
}

func TestLoad_TailscaleReplacesHTTPAddr(t *testing.T) {
	configPath := writeConfig(t, `
tailscale:
  enabled: true
  hostname: "eyecandy"
database:
  path: "./test.db"
reddit:
  client_id: "id"
  client_secret: "secret"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Tailscale.Enabled {
		t.Error("Tailscale.Enabled = false, want true")
	}
}

func TestLoad_TailscaleRequiresHostname(t *testing.T) {
	configPath := writeConfig(t, `
tailscale:
  enabled: true
database:
  path: "./test.db"
reddit:
  client_id: "id"
  client_secret: "secret"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "hostname") {
		t.Fatalf("expected hostname validation error, got %v", err)
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
reddit:
  client_id: "id"
  client_secret: "secret"
`)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "database.path") {
		t.Fatalf("expected database.path validation error, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [not: valid")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
