package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/velin-dev/velin/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

api:
  port: 8080

mounts:
  - point: "/"
    type: mem
    mem:
      capacity: 64Mi
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected API port 8080, got %d", cfg.API.Port)
	}

	// Verify the byte size decode hook parsed the mount capacity
	if len(cfg.Mounts) != 1 {
		t.Fatalf("Expected 1 mount, got %d", len(cfg.Mounts))
	}
	if cfg.Mounts[0].Mem.Capacity != bytesize.ByteSize(64*bytesize.MiB) {
		t.Errorf("Expected capacity 64Mi, got %d", cfg.Mounts[0].Mem.Capacity)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows running the emulator without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	// Verify default config is returned
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}

	// Verify default API port
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}

	// Verify default mount table
	if len(cfg.Mounts) != 1 || cfg.Mounts[0].Point != "/" {
		t.Errorf("Expected default root mount, got %+v", cfg.Mounts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Should return error
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[api]
port = 8080

[[mounts]]
point = "/"
type = "mem"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
}

func TestLoad_BadgerMount(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
mounts:
  - point: "/"
    type: mem
  - point: "/data"
    type: badger
    badger:
      path: "` + yamlSafePath(tmpDir) + `/db"
      uid: 1000
      gid: 1000
    seed:
      - path: "report.txt"
        content: "hello"
        mode: "600"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Mounts) != 2 {
		t.Fatalf("Expected 2 mounts, got %d", len(cfg.Mounts))
	}
	m := cfg.Mounts[1]
	if m.Type != "badger" {
		t.Errorf("Expected type 'badger', got %q", m.Type)
	}
	if m.Badger.UID != 1000 {
		t.Errorf("Expected uid 1000, got %d", m.Badger.UID)
	}
	if len(m.Seed) != 1 {
		t.Fatalf("Expected 1 seed entry, got %d", len(m.Seed))
	}
	if m.Seed[0].Type != "file" {
		t.Errorf("Expected seed type default 'file', got %q", m.Seed[0].Type)
	}
	if m.Seed[0].Mode != "600" {
		t.Errorf("Expected seed mode '600', got %q", m.Seed[0].Mode)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	// Verify all defaults are set
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if len(cfg.Mounts) != 1 || cfg.Mounts[0].Type != "mem" {
		t.Errorf("Expected default mem mount, got %+v", cfg.Mounts)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	// Should be an absolute path ending in config.yaml
	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "velin" {
		t.Errorf("Expected directory name 'velin', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// Set environment variables
	_ = os.Setenv("VELIN_LOGGING_LEVEL", "ERROR")
	_ = os.Setenv("VELIN_API_PORT", "9191")
	defer func() {
		_ = os.Unsetenv("VELIN_LOGGING_LEVEL")
		_ = os.Unsetenv("VELIN_API_PORT")
	}()

	// Create minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

api:
  port: 8080

mounts:
  - point: "/"
    type: mem
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify environment variables override config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.API.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Mounts[0].Mem.Capacity = bytesize.ByteSize(2 * bytesize.GiB)

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG' after round trip, got %q", loaded.Logging.Level)
	}
	if loaded.ShutdownTimeout != cfg.ShutdownTimeout {
		t.Errorf("Expected shutdown timeout %v after round trip, got %v", cfg.ShutdownTimeout, loaded.ShutdownTimeout)
	}
	if loaded.Mounts[0].Mem.Capacity != cfg.Mounts[0].Mem.Capacity {
		t.Errorf("Expected capacity %d after round trip, got %d", cfg.Mounts[0].Mem.Capacity, loaded.Mounts[0].Mem.Capacity)
	}
}
