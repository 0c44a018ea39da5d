package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"banshee/internal/config"
)

func TestLoadDefaultConfigWhenMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BANSHEE_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, path, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for default config, got true")
	}
	expectedPath := filepath.Join(tempHome, ".config", "banshee", "config.toml")
	if path != expectedPath {
		t.Fatalf("unexpected config path: got %q want %q", path, expectedPath)
	}
	if cfg.Paths.ScratchDir != filepath.Join(tempHome, ".cache", "banshee", "scratch") {
		t.Fatalf("unexpected scratch dir: %q", cfg.Paths.ScratchDir)
	}
	if cfg.Encoding.DefaultFormat != "ogg" {
		t.Fatalf("unexpected default format: %q", cfg.Encoding.DefaultFormat)
	}
	if cfg.ShutdownTimeout().Seconds() != 30 {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.ShutdownTimeout())
	}
	if got := cfg.LibraryDBPath(); got != filepath.Join(tempHome, ".local", "share", "banshee", "library.db") {
		t.Fatalf("unexpected library db path: %q", got)
	}
}

func TestLoadCustomConfigNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BANSHEE_NTFY_TOPIC", "https://ntfy.example/topic")

	configPath := filepath.Join(t.TempDir(), "banshee.toml")
	content := `
[paths]
scratch_dir = "~/scratch"

[encoding]
default_format = " FLAC "

[import]
extensions = ["MP3", ".mp3", "flac"]

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || path != configPath {
		t.Fatalf("expected custom config to be found, got path=%q exists=%v", path, exists)
	}
	if cfg.Paths.ScratchDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected scratch dir: %q", cfg.Paths.ScratchDir)
	}
	if cfg.Encoding.DefaultFormat != "flac" {
		t.Fatalf("expected lowercased format, got %q", cfg.Encoding.DefaultFormat)
	}
	if got := strings.Join(cfg.Import.Extensions, ","); got != ".flac,.mp3" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("expected env ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.Paths.LibraryDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be a directory", dir)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Encoding.DefaultFormat != "ogg" {
		t.Fatalf("unexpected sample default format: %q", cfg.Encoding.DefaultFormat)
	}
	if cfg.Workflow.ShutdownTimeout != 30 {
		t.Fatalf("unexpected sample shutdown timeout: %d", cfg.Workflow.ShutdownTimeout)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"format", func(c *config.Config) { c.Encoding.DefaultFormat = "wma" }, "encoding.default_format"},
		{"bitrate", func(c *config.Config) { c.Encoding.BitrateKbps = 8 }, "bitrate_kbps"},
		{"preset", func(c *config.Config) { c.Encoding.DraptoPreset = 40 }, "drapto_preset"},
		{"extensions", func(c *config.Config) { c.Import.Extensions = nil }, "import.extensions"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"shutdown", func(c *config.Config) { c.Workflow.ShutdownTimeout = 0 }, "shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Encoding.DefaultFormat = "opus"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Encoding.DefaultFormat != "opus" {
		t.Fatalf("unexpected format after reload: %q", loaded.Encoding.DefaultFormat)
	}
}
