package config

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8585
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8585
storage:
  database_path: "./data/meetings.db"
  export_dir: "./exports"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "meetings.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantExport := filepath.Join(dir, "exports")
	if cfg.Storage.ExportDir != wantExport {
		t.Errorf("export_dir = %s, want %s", cfg.Storage.ExportDir, wantExport)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8585 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Backend.RequestTimeout != 30 {
		t.Errorf("default request timeout: got %d", cfg.Backend.RequestTimeout)
	}
	if cfg.Search.ItemsPerPage != 20 {
		t.Errorf("default items_per_page: got %d", cfg.Search.ItemsPerPage)
	}
	if cfg.Search.SuggestionLimit != 8 {
		t.Errorf("default suggestion_limit: got %d", cfg.Search.SuggestionLimit)
	}
	if cfg.Search.SuggestionDebounceMs != 300 {
		t.Errorf("default suggestion_debounce_ms: got %d", cfg.Search.SuggestionDebounceMs)
	}
	if cfg.Storage.ExportDir == "" {
		t.Error("export_dir should be set by default")
	}
}

func TestSearchConfig_IncludeHighlightsOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		s := &SearchConfig{}
		if got := s.IncludeHighlightsOrDefault(); !got {
			t.Errorf("IncludeHighlightsOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		s := &SearchConfig{IncludeHighlights: &f}
		if got := s.IncludeHighlightsOrDefault(); got {
			t.Errorf("IncludeHighlightsOrDefault() = %v, want false", got)
		}
	})
}

func TestBackendConfig_Timeout(t *testing.T) {
	b := &BackendConfig{RequestTimeout: 15}
	if got := b.Timeout(); got != 15*time.Second {
		t.Errorf("Timeout() = %v", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(port int) {
		content := "server:\n  host: \"localhost\"\n  port: " + strconv.Itoa(port) + "\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	write(9001)

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	write(9002)
	select {
	case cfg := <-reloaded:
		if cfg.Server.Port != 9002 {
			t.Errorf("reloaded port: got %d", cfg.Server.Port)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloaded:
		t.Error("unexpected reload for unrelated file")
	case <-time.After(700 * time.Millisecond):
	}
}
