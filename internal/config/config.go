// Package config loads client configuration from ~/.moveit/config.yaml
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults point at the public MoveIt instance.
const (
	DefaultAPIURL = "https://moveit.hackclub.app/api"
	DefaultWSURL  = "wss://moveit.hackclub.app"
)

// Config holds everything the client needs to reach a MoveIt deployment.
type Config struct {
	APIURL   string `yaml:"api_url"`
	WSURL    string `yaml:"ws_url"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Dir returns the per-user state directory (~/.moveit).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.Dir: get home dir: %w", err)
	}
	return filepath.Join(home, ".moveit"), nil
}

// Load reads the config file at path (missing file is fine — defaults
// apply) and then applies env overrides. Precedence: env > file > default.
func Load(path string) (*Config, error) {
	cfg := &Config{
		APIURL:   DefaultAPIURL,
		WSURL:    DefaultWSURL,
		LogLevel: "info",
	}
	if dir, err := Dir(); err == nil {
		cfg.LogFile = filepath.Join(dir, "moveit.log")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// no file, defaults apply
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MOVEIT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("MOVEIT_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := os.Getenv("MOVEIT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("MOVEIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
