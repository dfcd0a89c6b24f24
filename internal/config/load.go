package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// A nil f loads defaults and the discovered config file only.
func Load(f *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ""
	if f != nil {
		configPath = f.Config
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	if f != nil {
		f.apply(cfg)
	}

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./scmlkit.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "scmlkit")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "scmlkit")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scmlkit")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scmlkit")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// A relative image root in the file is taken relative to the file itself.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var roots []string
	cfg.Build.ImageRoots, roots = nil, cfg.Build.ImageRoots
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if cfg.Build.ImageRoots == nil {
		cfg.Build.ImageRoots = roots
		return nil
	}

	base := filepath.Dir(path)
	for i, root := range cfg.Build.ImageRoots {
		if !filepath.IsAbs(root) {
			cfg.Build.ImageRoots[i] = filepath.Join(base, root)
		}
	}
	return nil
}
