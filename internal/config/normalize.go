package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGrouping()
	c.normalizeNaming()
	c.normalizeCodes()
	c.normalizeNotifications()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("SAMPLESORT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeGrouping() {
	g := &c.Grouping
	if g.WindowSeconds <= 0 {
		g.WindowSeconds = defaultWindowSeconds
	}
	if g.ColorLimit <= 0 {
		g.ColorLimit = defaultColorLimit
	}
	if g.MaxRounds <= 0 {
		g.MaxRounds = defaultMaxRounds
	}
	if g.SweepConcurrency <= 0 {
		g.SweepConcurrency = defaultSweepConcurrency
	}
	if g.StrictMinSharedWords <= 0 {
		g.StrictMinSharedWords = defaultStrictMinSharedWords
	}
	if g.AutoGroupIntervalSeconds < 0 {
		g.AutoGroupIntervalSeconds = 0
	}
}

func (c *Config) normalizeNaming() {
	c.Naming.Placeholder = strings.TrimSpace(c.Naming.Placeholder)
	if c.Naming.Placeholder == "" {
		c.Naming.Placeholder = defaultNamingPlaceholder
	}
	if c.Naming.MaxSuffix <= 0 {
		c.Naming.MaxSuffix = defaultNamingMaxSuffix
	}
}

func (c *Config) normalizeCodes() {
	patterns := make([]string, 0, len(c.Codes.Patterns))
	seen := make(map[string]struct{}, len(c.Codes.Patterns))
	for _, pattern := range c.Codes.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, exists := seen[pattern]; exists {
			continue
		}
		seen[pattern] = struct{}{}
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		patterns = append(patterns, defaultCodePatterns...)
	}
	c.Codes.Patterns = patterns
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SAMPLESORT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAPI() {
	if c.API.RateLimit <= 0 {
		c.API.RateLimit = defaultAPIRateLimit
	}
	if c.API.Burst <= 0 {
		c.API.Burst = defaultAPIBurst
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
