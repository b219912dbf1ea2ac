package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateDir is the per-project directory holding the state database.
const StateDir = ".gdmigrate"

// Config holds all configuration for the migration tool.
type Config struct {
	Migrate   MigrateConfig   `yaml:"migrate"`
	Rules     RulesConfig     `yaml:"rules"`
	Indent    IndentConfig    `yaml:"indent"`
	Orphan    OrphanConfig    `yaml:"orphan"`
	Canonical CanonicalConfig `yaml:"canonical"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MigrateConfig holds candidate discovery and run options.
type MigrateConfig struct {
	Includes         []string `yaml:"includes"`
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	ExcludeFiles     []string `yaml:"exclude_files"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	Jobs             int      `yaml:"jobs"` // 0 = number of CPUs
	Backup           bool     `yaml:"backup"`
	BackupPrefix     string   `yaml:"backup_prefix"`
}

// RulesConfig lists rewrite rules to skip by name.
type RulesConfig struct {
	Disabled []string `yaml:"disabled"`
}

// IndentConfig selects the indentation unit. Style "auto" detects it per file.
type IndentConfig struct {
	Style string `yaml:"style"` // "auto", "tab", "space"
	Width int    `yaml:"width"`
}

type OrphanConfig struct {
	WrapperName string `yaml:"wrapper_name"`
}

type CanonicalConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Migrate: MigrateConfig{
			Includes: []string{"**/*.gd"},
			ExcludeDirs: []string{
				".godot", ".git", "node_modules", "exports", "temp_syntax_check",
				"syntax_fix_backup_*", "gdmigrate_backup_*", StateDir,
			},
			ExcludeFiles:     []string{"*backup*.gd", "*_backup.gd"},
			RespectGitignore: false,
			Jobs:             0,
			Backup:           false,
			BackupPrefix:     "gdmigrate_backup_",
		},
		Indent: IndentConfig{
			Style: "auto",
			Width: 4,
		},
		Orphan: OrphanConfig{
			WrapperName: "_migrated_init",
		},
		Canonical: CanonicalConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for gdmigrate.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "gdmigrate.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, StateDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Indent.Style {
	case "auto", "tab", "space":
	default:
		return fmt.Errorf("indent.style must be auto, tab or space, got %q", c.Indent.Style)
	}
	if c.Indent.Style == "space" && c.Indent.Width <= 0 {
		return fmt.Errorf("indent.width must be positive for space indentation")
	}
	if c.Migrate.Jobs < 0 {
		return fmt.Errorf("migrate.jobs must not be negative")
	}
	if name := strings.TrimSpace(c.Orphan.WrapperName); name == "" || strings.ContainsAny(name, " \t(") {
		return fmt.Errorf("orphan.wrapper_name must be a plain identifier, got %q", c.Orphan.WrapperName)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StateDBPath returns the path to the state database.
func StateDBPath(dir string) string {
	return filepath.Join(dir, StateDir, "state.db")
}

// EnsureStateDir ensures the .gdmigrate directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, StateDir), 0755)
}
