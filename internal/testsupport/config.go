package testsupport

import (
	"path/filepath"
	"testing"

	"samplesort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWindowSeconds overrides the grouping window.
func WithWindowSeconds(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Grouping.WindowSeconds = seconds
	}
}

// WithMatchOnExtract toggles the immediate weighted match after extraction.
func WithMatchOnExtract(enabled bool) ConfigOption {
	return func(c *config.Config) {
		c.Grouping.MatchOnExtract = enabled
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(c *config.Config) {
		c.Paths.APIToken = token
	}
}
