// Package config loads simplr settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dori/simplr/internal/db"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DataDir             string        `mapstructure:"data_dir" yaml:"data_dir"`
	DBPath              string        `mapstructure:"db_path" yaml:"db_path,omitempty"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval" yaml:"maintenance_interval"`
	Notifications       bool          `mapstructure:"notifications" yaml:"notifications"`
	Theme               string        `mapstructure:"theme" yaml:"theme"`
	Debug               bool          `mapstructure:"debug" yaml:"debug"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	dataDir := db.DefaultDataDir()
	return &Config{
		DataDir:             dataDir,
		DBPath:              filepath.Join(dataDir, "simplr.db"),
		MaintenanceInterval: 15 * time.Minute,
		Notifications:       true,
		Theme:               "nord",
	}
}

// DefaultPath returns the config file location
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "simplr", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".simplr", "config.yaml")
	}
	return filepath.Join(home, ".config", "simplr", "config.yaml")
}

// Load reads the config file at path (if it exists) over the defaults.
// SIMPLR_* environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("simplr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("db_path", "")
	v.SetDefault("maintenance_interval", cfg.MaintenanceInterval)
	v.SetDefault("notifications", cfg.Notifications)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("debug", false)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "simplr.db")
	}
	cfg.DBPath = expandHome(cfg.DBPath)

	if cfg.MaintenanceInterval < time.Second {
		return cfg, fmt.Errorf("maintenance_interval must be at least 1s, got %s", cfg.MaintenanceInterval)
	}

	return cfg, nil
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	cfg := DefaultConfig()
	cfg.DBPath = ""

	body, err := yaml.Marshal(fileConfig{
		DataDir:             cfg.DataDir,
		MaintenanceInterval: cfg.MaintenanceInterval.String(),
		Notifications:       cfg.Notifications,
		Theme:               cfg.Theme,
		Debug:               cfg.Debug,
	})
	if err != nil {
		return err
	}

	header := "# simplr configuration\n# Environment variables SIMPLR_<KEY> override these values.\n"
	return os.WriteFile(path, append([]byte(header), body...), 0644)
}

// fileConfig is the on-disk shape; durations are written as strings
type fileConfig struct {
	DataDir             string `yaml:"data_dir"`
	MaintenanceInterval string `yaml:"maintenance_interval"`
	Notifications       bool   `yaml:"notifications"`
	Theme               string `yaml:"theme"`
	Debug               bool   `yaml:"debug"`
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
