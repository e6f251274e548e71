package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr())
	}
	if cfg.Import.MaxRows != 50000 {
		t.Errorf("expected default max rows 50000, got %d", cfg.Import.MaxRows)
	}
	if cfg.Import.ChunkSize != 1000 {
		t.Errorf("expected default chunk size 1000, got %d", cfg.Import.ChunkSize)
	}
	if cfg.Import.RunTimeout != 10*time.Minute {
		t.Errorf("expected default run timeout 10m, got %s", cfg.Import.RunTimeout)
	}
	if cfg.Database.DBName != "marketsync" {
		t.Errorf("expected default dbname marketsync, got %q", cfg.Database.DBName)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
import:
  max_rows: 100
  chunk_size: 25
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090 from file, got %d", cfg.Server.Port)
	}
	if cfg.Import.MaxRows != 100 || cfg.Import.ChunkSize != 25 {
		t.Errorf("expected import limits from file, got %+v", cfg.Import)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json logging from file, got %q", cfg.Logging.Format)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MARKETSYNC_DATABASE_HOST", "db.internal")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected env override, got %q", cfg.Database.Host)
	}
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	dir := t.TempDir()
	content := "import:\n  chunk_size: 0\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for non-positive chunk size")
	}
}
