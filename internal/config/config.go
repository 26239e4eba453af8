// Package config provides configuration loading and structs for the
// meetingmind search server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig holds settings for a remote search backend. When BaseURL
// is empty the embedded SQLite backend is used instead.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (b *BackendConfig) Timeout() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// SearchConfig holds search behavior settings.
type SearchConfig struct {
	ItemsPerPage         int   `yaml:"items_per_page"`
	SuggestionLimit      int   `yaml:"suggestion_limit"`
	SuggestionDebounceMs int   `yaml:"suggestion_debounce_ms"`
	HistoryLimit         int   `yaml:"history_limit"`
	IncludeHighlights    *bool `yaml:"include_highlights"`
}

// IncludeHighlightsOrDefault returns whether results carry highlight
// positions; defaults to true when unset.
func (s *SearchConfig) IncludeHighlightsOrDefault() bool {
	if s.IncludeHighlights != nil {
		return *s.IncludeHighlights
	}
	return true
}

// SuggestionDebounce returns the suggestion debounce as a duration.
func (s *SearchConfig) SuggestionDebounce() time.Duration {
	return time.Duration(s.SuggestionDebounceMs) * time.Millisecond
}

// StorageConfig holds paths for the embedded database and export output.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	ExportDir    string `yaml:"export_dir"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ExportDir = expandPath(cfg.Storage.ExportDir, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
