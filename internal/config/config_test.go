package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "canonstore.toml"))
	if err != nil {
		t.Fatalf("Load with no file present: %v", err)
	}
	if cfg.Cache.L1Size != DefaultConfig().Cache.L1Size {
		t.Errorf("L1Size: got %d, want the built-in default", cfg.Cache.L1Size)
	}
}

func TestLoad_WithExplicitFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
log_level = "debug"

[cache]
enable_cache = true
cache_max_size = 2000
enable_tiered_cache = true
l1_cache_size = 200
l2_cache_size = 1000
promote_threshold = 5

[serializer]
enable_adaptive_serialization = true
max_depth = 25

[recovery]
enable_error_recovery = true
max_retries = 5
fallback_mode = "manual"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Cache.L1Size != 200 {
		t.Errorf("Cache.L1Size: got %d, want 200", cfg.Cache.L1Size)
	}
	if cfg.Serializer.MaxDepth != 25 {
		t.Errorf("Serializer.MaxDepth: got %d, want 25", cfg.Serializer.MaxDepth)
	}
	if cfg.Recovery.FallbackMode != "manual" {
		t.Errorf("Recovery.FallbackMode: got %q, want %q", cfg.Recovery.FallbackMode, "manual")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
log_level = "info"

[cache]
l1_cache_size = 1000
l2_cache_size = 5000
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("CANONSTORE_CACHE_L1_CACHE_SIZE", "4000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Cache.L1Size != 4000 {
		t.Errorf("Cache.L1Size with env override: got %d, want 4000", cfg.Cache.L1Size)
	}
}

func TestLoad_ValidationFailure_BadLogLevel(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")

	content := `log_level = "shout"`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for bad log_level")
	}
}

func TestLoad_ValidationFailure_L1ExceedsL2(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")

	content := `
[cache]
enable_tiered_cache = true
l1_cache_size = 9000
l2_cache_size = 1000
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for l1 > l2")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled: got false, want true")
	}
	if !cfg.Cache.TieredEnabled {
		t.Error("Cache.TieredEnabled: got false, want true")
	}
	if cfg.Serializer.DistinctOpaqueSymbols {
		t.Error("Serializer.DistinctOpaqueSymbols: got true, want false (default collapse per spec)")
	}
	if cfg.Async.Enabled {
		t.Error("Async.Enabled: got true, want false by default")
	}
}

func TestConfigFilePath_BeforeLoad(t *testing.T) {
	loadedConfigFile.Store("")
	path := ConfigFilePath()
	if path != "" {
		t.Errorf("ConfigFilePath before load: got %q, want empty", path)
	}
}

func TestExportConfig(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "exported.toml")

	cfg := DefaultConfig()
	set(cfg)

	if err := ExportConfig(exportPath); err != nil {
		t.Fatalf("ExportConfig: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("exported config is empty")
	}
}

func TestImportConfig(t *testing.T) {
	dir := t.TempDir()
	importPath := filepath.Join(dir, "import.toml")

	content := `log_level = "warn"`
	if err := os.WriteFile(importPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := ImportConfig(importPath); err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}

	cfg := Get()
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel after import: got %q, want %q", cfg.LogLevel, "warn")
	}

	set(DefaultConfig())
}
