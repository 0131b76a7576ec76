package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhaobenny/codextop/internal/parser"
)

const (
	// DefaultOutDir is where reports are written when out_dir is unset
	DefaultOutDir = "report"
	// DefaultWatchDebounce is the quiet period before watch mode regenerates
	DefaultWatchDebounce = 2 * time.Second
)

// ErrUnknownKey is returned by Set for keys the config file does not have
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the CLI configuration
type Config struct {
	CodexHome     string        `yaml:"codex_home,omitempty"`
	SessionsRoot  string        `yaml:"sessions_root,omitempty"`
	PricingFile   string        `yaml:"pricing_file,omitempty"`
	Timezone      string        `yaml:"timezone,omitempty"`
	OutDir        string        `yaml:"out_dir,omitempty"`
	Days          int           `yaml:"days,omitempty"`
	LogLevel      string        `yaml:"log_level,omitempty"`
	LogFile       string        `yaml:"log_file,omitempty"`
	WatchDebounce time.Duration `yaml:"watch_debounce,omitempty"`
}

// Keys lists the settable keys in file order
func Keys() []string {
	return []string{
		"codex_home", "sessions_root", "pricing_file", "timezone", "out_dir",
		"days", "log_level", "log_file", "watch_debounce",
	}
}

// Path returns the path to the config file
func Path() (string, error) {
	if path := os.Getenv("CODEXTOP_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codextop.yaml"), nil
}

// Load loads the configuration from disk. A missing file is an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save saves the configuration to disk
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks values that would otherwise fail at scan time
func (c *Config) Validate() error {
	if c.Days < 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Set assigns one key from its string form
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "codex_home":
		c.CodexHome = value
	case "sessions_root":
		c.SessionsRoot = value
	case "pricing_file":
		c.PricingFile = value
	case "timezone":
		c.Timezone = value
	case "out_dir":
		c.OutDir = value
	case "days":
		if value == "" {
			c.Days = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("days: %w", err)
		}
		c.Days = n
	case "log_level":
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	case "watch_debounce":
		if value == "" {
			c.WatchDebounce = 0
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("watch_debounce: %w", err)
		}
		c.WatchDebounce = d
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Get returns one key in the form Set accepts
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "codex_home":
		return c.CodexHome, nil
	case "sessions_root":
		return c.SessionsRoot, nil
	case "pricing_file":
		return c.PricingFile, nil
	case "timezone":
		return c.Timezone, nil
	case "out_dir":
		return c.OutDir, nil
	case "days":
		if c.Days == 0 {
			return "", nil
		}
		return strconv.Itoa(c.Days), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "watch_debounce":
		if c.WatchDebounce == 0 {
			return "", nil
		}
		return c.WatchDebounce.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// SessionsDir resolves the session log directory: sessions_root, then
// codex_home/sessions, then $CODEX_HOME/sessions or ~/.codex/sessions.
func (c *Config) SessionsDir() (string, error) {
	if c.SessionsRoot != "" {
		return c.SessionsRoot, nil
	}
	if c.CodexHome != "" {
		return filepath.Join(c.CodexHome, "sessions"), nil
	}
	return parser.DefaultSessionsRoot()
}

// Location returns the configured timezone, or time.Local when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Output returns the report directory
func (c *Config) Output() string {
	if c.OutDir == "" {
		return DefaultOutDir
	}
	return c.OutDir
}

// Debounce returns the watch debounce interval
func (c *Config) Debounce() time.Duration {
	if c.WatchDebounce <= 0 {
		return DefaultWatchDebounce
	}
	return c.WatchDebounce
}
