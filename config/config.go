// ABOUTME: Configuration for the forms API connection and resolver tuning
// ABOUTME: Loads from XDG config.json, then an optional .env, then FORMSYNC_* overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// AppName names the XDG data directory.
const AppName = "formsync"

// Resolver tunes the GUID to id bridge.
type Resolver struct {
	BatchSize   int           `json:"batch_size"`
	Concurrency int           `json:"concurrency"`
	WaveDelay   time.Duration `json:"wave_delay"`
	CacheLimit  int           `json:"cache_limit"`
}

type Config struct {
	APIBaseURL string   `json:"api_base_url"`
	ProjectID  string   `json:"project_id"`
	Token      string   `json:"token,omitempty"`
	AssetsURL  string   `json:"assets_url,omitempty"`
	DataDir    string   `json:"data_dir,omitempty"`
	LogLevel   string   `json:"log_level,omitempty"`
	Resolver   Resolver `json:"resolver"`
}

// Default returns a config with the protocol defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Resolver: Resolver{
			BatchSize:   100,
			Concurrency: 5,
			WaveDelay:   time.Millisecond,
			CacheLimit:  1000,
		},
	}
}

// Dir returns the XDG data directory of the application.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns where the config file lives.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads the config file, falling back to defaults when it does not
// exist, then applies .env and environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FORMSYNC_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("FORMSYNC_PROJECT"); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv("FORMSYNC_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("FORMSYNC_ASSETS_URL"); v != "" {
		cfg.AssetsURL = v
	}
	if v := os.Getenv("FORMSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FORMSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"FORMSYNC_BATCH_SIZE", &cfg.Resolver.BatchSize},
		{"FORMSYNC_CONCURRENCY", &cfg.Resolver.Concurrency},
		{"FORMSYNC_CACHE_LIMIT", &cfg.Resolver.CacheLimit},
	}
	for _, o := range ints {
		v := os.Getenv(o.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", o.name, err)
		}
		*o.dst = n
	}

	if v := os.Getenv("FORMSYNC_WAVE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FORMSYNC_WAVE_DELAY: %w", err)
		}
		cfg.Resolver.WaveDelay = d
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Resolver.BatchSize <= 0 {
		c.Resolver.BatchSize = def.Resolver.BatchSize
	}
	if c.Resolver.Concurrency <= 0 {
		c.Resolver.Concurrency = def.Resolver.Concurrency
	}
	if c.Resolver.CacheLimit <= 0 {
		c.Resolver.CacheLimit = def.Resolver.CacheLimit
	}
	if c.Resolver.WaveDelay < 0 {
		c.Resolver.WaveDelay = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Save writes the config with owner-only permissions.
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DatabasePath returns the snapshot database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.dataDir(), "formsync.db")
}

// HistoryDir returns the form history store location.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.dataDir(), "history")
}

func (c *Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return Dir()
}

// IsConfigured reports whether the API can be reached.
func (c *Config) IsConfigured() bool {
	return c.APIBaseURL != "" && c.ProjectID != ""
}

// Level maps the configured log level name onto a log level. Unknown names
// fall back to info.
func (c *Config) Level() log.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ApplyLogLevel sets the level of the default logger.
func (c *Config) ApplyLogLevel() {
	log.SetLevel(c.Level())
}
