package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shardpack/shardpack/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_AppliesDefaults(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "DEBUG"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Explicit value preserved
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}

	// Defaults applied for everything else
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Compress.Codec != "zstd" {
		t.Errorf("Expected default codec 'zstd', got %q", cfg.Compress.Codec)
	}
	if cfg.Restore.QueueDepth != 10 {
		t.Errorf("Expected default queue_depth 10, got %d", cfg.Restore.QueueDepth)
	}
	if cfg.Restore.ReadTimeout != 5*time.Second {
		t.Errorf("Expected default read_timeout 5s, got %v", cfg.Restore.ReadTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config so a
	// config file is never required to run.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_DecodeHooks(t *testing.T) {
	configPath := writeConfig(t, `
restore:
  chunk_size: "256KiB"
  read_timeout: "10s"
  queue_depth: 4
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Restore.ChunkSize != 256*bytesize.KiB {
		t.Errorf("Expected chunk_size 256KiB, got %v", cfg.Restore.ChunkSize)
	}
	if cfg.Restore.ReadTimeout != 10*time.Second {
		t.Errorf("Expected read_timeout 10s, got %v", cfg.Restore.ReadTimeout)
	}
	if cfg.Restore.QueueDepth != 4 {
		t.Errorf("Expected queue_depth 4, got %d", cfg.Restore.QueueDepth)
	}
}

func TestLoad_NormalizesLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "warn"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized level 'WARN', got %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("SHARDPACK_LOGGING_LEVEL", "ERROR")

	configPath := writeConfig(t, `
logging:
  level: "INFO"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Environment variables override the config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Compress.Codec = "lz4"
	cfg.Compress.Level = 6

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Compress.Codec != "lz4" {
		t.Errorf("Expected codec 'lz4', got %q", loaded.Compress.Codec)
	}
	if loaded.Compress.Level != 6 {
		t.Errorf("Expected level 6, got %d", loaded.Compress.Level)
	}
	if loaded.Restore.ChunkSize != cfg.Restore.ChunkSize {
		t.Errorf("Expected chunk_size %v, got %v", cfg.Restore.ChunkSize, loaded.Restore.ChunkSize)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}
