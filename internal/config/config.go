package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Grouping contains the matcher window, sweep behaviour, and scoring weights.
type Grouping struct {
	// WindowSeconds is the symmetric capture-time window shared by both
	// matching strategies. A candidate exactly at the edge is excluded.
	WindowSeconds int `toml:"window_seconds"`
	// ColorLimit is how many dominant colors per item feed color matching.
	ColorLimit int `toml:"color_limit"`
	// MaxRounds bounds how many inference rounds a sweep runs before stopping.
	MaxRounds int `toml:"max_rounds"`
	// SweepConcurrency bounds the goroutines scoring targets inside a round.
	SweepConcurrency int `toml:"sweep_concurrency"`
	// MatchOnExtract runs the weighted matcher right after an extraction
	// produced no valid code.
	MatchOnExtract bool `toml:"match_on_extract"`
	// InheritInvalidGroups allows items tagged invalid_group to act as
	// candidates for inherited membership.
	InheritInvalidGroups bool `toml:"inherit_invalid_groups"`
	// AutoGroupIntervalSeconds schedules a periodic weighted sweep in the
	// daemon. Zero disables the schedule.
	AutoGroupIntervalSeconds int `toml:"auto_group_interval_seconds"`

	StrictMinSharedWords int     `toml:"strict_min_shared_words"`
	WeightDescription    float64 `toml:"weight_description"`
	WeightColor          float64 `toml:"weight_color"`
	WeightTime           float64 `toml:"weight_time"`
	WeightedMinScore     float64 `toml:"weighted_min_score"`
}

// Naming contains Name Allocator limits.
type Naming struct {
	Placeholder string `toml:"placeholder"`
	MaxSuffix   int    `toml:"max_suffix"`
}

// Codes lists the regular expressions an identifier must match to be treated
// as an authoritative group key.
type Codes struct {
	Patterns []string `toml:"patterns"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Sweeps         bool   `toml:"sweeps"`
	Errors         bool   `toml:"errors"`
}

// API contains HTTP surface limits.
type API struct {
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for samplesort.
//
// Configuration sections by subsystem:
//   - Paths: database/log directories and API bind address
//   - Grouping: matcher window, sweep rounds, strategy weights
//   - Naming: allocator placeholder token and suffix cap
//   - Codes: code-format rules
//   - Notifications: ntfy push notification settings
//   - API: request rate limiting
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Grouping      Grouping      `toml:"grouping"`
	Naming        Naming        `toml:"naming"`
	Codes         Codes         `toml:"codes"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("samplesort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding the item pool.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "items.db")
}

// LockPath returns the daemon's single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "samplesort.lock")
}

// Window returns the grouping window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Grouping.WindowSeconds) * time.Second
}

// AutoGroupInterval returns the periodic sweep interval, zero when disabled.
func (c *Config) AutoGroupInterval() time.Duration {
	if c.Grouping.AutoGroupIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Grouping.AutoGroupIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
