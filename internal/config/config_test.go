package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"samplesort/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("SAMPLESORT_API_TOKEN", "secret")
	t.Setenv("SAMPLESORT_NTFY_TOPIC", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "samplesort")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "items.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Window() != 3*time.Minute {
		t.Fatalf("expected 3 minute window, got %s", cfg.Window())
	}
	if !cfg.Grouping.InheritInvalidGroups {
		t.Fatal("expected invalid-group inheritance enabled by default")
	}
	if cfg.AutoGroupInterval() != 0 {
		t.Fatalf("expected auto grouping disabled by default, got %s", cfg.AutoGroupInterval())
	}
	if len(cfg.Codes.Patterns) == 0 {
		t.Fatal("expected default code patterns")
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SAMPLESORT_API_TOKEN", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"data_dir": "~/samples",
		},
		"grouping": map[string]any{
			"window_seconds":              60,
			"inherit_invalid_groups":      false,
			"auto_group_interval_seconds": 300,
			"weighted_min_score":          0.7,
		},
		"naming": map[string]any{
			"placeholder": "  loose  ",
		},
		"codes": map[string]any{
			"patterns": []string{" ^X[0-9]+$ ", "^X[0-9]+$", ""},
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "DEBUG",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be read from %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "samples") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Window() != time.Minute {
		t.Fatalf("unexpected window: %s", cfg.Window())
	}
	if cfg.Grouping.InheritInvalidGroups {
		t.Fatal("expected inheritance disabled")
	}
	if cfg.AutoGroupInterval() != 5*time.Minute {
		t.Fatalf("unexpected auto group interval: %s", cfg.AutoGroupInterval())
	}
	if cfg.Naming.Placeholder != "loose" {
		t.Fatalf("expected trimmed placeholder, got %q", cfg.Naming.Placeholder)
	}
	if len(cfg.Codes.Patterns) != 1 || cfg.Codes.Patterns[0] != "^X[0-9]+$" {
		t.Fatalf("unexpected patterns: %#v", cfg.Codes.Patterns)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
	// Unset fields keep their defaults.
	if cfg.Grouping.WeightDescription != config.Default().Grouping.WeightDescription {
		t.Fatalf("unexpected description weight: %v", cfg.Grouping.WeightDescription)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"weight out of range", func(c *config.Config) { c.Grouping.WeightColor = 1.5 }, "grouping.weight_color"},
		{"all weights zero", func(c *config.Config) {
			c.Grouping.WeightDescription, c.Grouping.WeightColor, c.Grouping.WeightTime = 0, 0, 0
		}, "must not all be zero"},
		{"min score", func(c *config.Config) { c.Grouping.WeightedMinScore = 1 }, "weighted_min_score"},
		{"color limit", func(c *config.Config) { c.Grouping.ColorLimit = 5 }, "color_limit"},
		{"bad pattern", func(c *config.Config) { c.Codes.Patterns = []string{"([A-Z"} }, "codes.patterns"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Grouping.WindowSeconds != 180 {
		t.Fatalf("unexpected window seconds: %d", cfg.Grouping.WindowSeconds)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
