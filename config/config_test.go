package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Indent.Style != "auto" {
		t.Errorf("expected Indent.Style=auto, got %s", cfg.Indent.Style)
	}
	if cfg.Orphan.WrapperName != "_migrated_init" {
		t.Errorf("expected WrapperName=_migrated_init, got %s", cfg.Orphan.WrapperName)
	}
	if !cfg.Canonical.Enabled {
		t.Error("expected canonicalization enabled by default")
	}
	if len(cfg.Migrate.Includes) != 1 || cfg.Migrate.Includes[0] != "**/*.gd" {
		t.Errorf("unexpected includes: %v", cfg.Migrate.Includes)
	}
	found := false
	for _, d := range cfg.Migrate.ExcludeDirs {
		if d == ".godot" {
			found = true
		}
	}
	if !found {
		t.Error("expected .godot in default exclude_dirs")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gdmigrate.yaml")

	content := `
indent:
  style: space
  width: 2
rules:
  disabled: [suspension_rewrite]
canonical:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Indent.Style != "space" || cfg.Indent.Width != 2 {
		t.Errorf("expected space/2, got %s/%d", cfg.Indent.Style, cfg.Indent.Width)
	}
	if len(cfg.Rules.Disabled) != 1 || cfg.Rules.Disabled[0] != "suspension_rewrite" {
		t.Errorf("unexpected disabled rules: %v", cfg.Rules.Disabled)
	}
	if cfg.Canonical.Enabled {
		t.Error("expected canonicalization disabled")
	}
	if cfg.Orphan.WrapperName != "_migrated_init" {
		t.Errorf("unset sections should keep defaults, got %q", cfg.Orphan.WrapperName)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gdmigrate.yaml")

	if err := os.WriteFile(configPath, []byte("indent:\n  style: fancy\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for unknown indent style")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureStateDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, StateDir, "config.yaml")

	content := `
migrate:
  jobs: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Migrate.Jobs != 3 {
		t.Errorf("expected Jobs=3, got %d", cfg.Migrate.Jobs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gdmigrate.yaml")

	cfg := DefaultConfig()
	cfg.Orphan.WrapperName = "_legacy_body"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Orphan.WrapperName != "_legacy_body" {
		t.Errorf("expected _legacy_body, got %s", loaded.Orphan.WrapperName)
	}
}

func TestStateDBPath(t *testing.T) {
	path := StateDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".gdmigrate", "state.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
