package common

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Storage     StorageConfig   `toml:"storage"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Claude      ClaudeConfig    `toml:"claude"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines (default "15:04:05")
}

// WebSocketConfig contains configuration for WebSocket log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast
	ExcludePatterns []string `toml:"exclude_patterns"` // Message substrings excluded from broadcasting
	StatusInterval  string   `toml:"status_interval"`  // Interval between periodic status pushes (default "30s")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean runs
}

// PipelineConfig contains configuration for the deal search pipeline
type PipelineConfig struct {
	Feeds            map[string]string `toml:"feeds"`             // Category name -> RSS feed URL
	MaxPerFeed       int               `toml:"max_per_feed"`      // Max entries scanned per feed (default 5)
	DealThreshold    float64           `toml:"deal_threshold"`    // Minimum discount in dollars to surface a deal (default 50)
	MaxOpportunities int               `toml:"max_opportunities"` // Max opportunities returned per run (default 3)
	RequestDelay     string            `toml:"request_delay"`     // Minimum delay between feed fetches (default "500ms")
	FetchTimeout     string            `toml:"fetch_timeout"`     // Per-request timeout for feed and page fetches (default "30s")
}

// SchedulerConfig contains configuration for recurring scheduled searches
type SchedulerConfig struct {
	Enabled    bool     `toml:"enabled"`    // Enable cron-driven recurring searches
	Schedule   string   `toml:"schedule"`   // Cron expression (default "0 */6 * * *")
	Categories []string `toml:"categories"` // Categories searched on each scheduled run (1-3)
}

// ClaudeConfig contains Anthropic Claude settings for the price estimator
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (or ANTHROPIC_API_KEY env var)
	Model       string  `toml:"model"`       // Model name (default "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Max response tokens (default 256)
	Temperature float32 `toml:"temperature"` // Sampling temperature
	Timeout     string  `toml:"timeout"`     // Request timeout (default "30s")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		WebSocket: WebSocketConfig{
			MinLevel:       "info",
			StatusInterval: "30s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/dealsense",
			},
		},
		Pipeline: PipelineConfig{
			Feeds:            DefaultCategoryFeeds(),
			MaxPerFeed:       5,
			DealThreshold:    50,
			MaxOpportunities: 3,
			RequestDelay:     "500ms",
			FetchTimeout:     "30s",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 256,
			Timeout:   "30s",
		},
	}
}

// DefaultCategoryFeeds returns the built-in category to RSS feed mapping
func DefaultCategoryFeeds() map[string]string {
	return map[string]string{
		"Home & Garden":            "https://www.dealnews.com/c196/Home-Garden/?rss=1",
		"Clothing & Accessories":   "https://www.dealnews.com/c202/Clothing-Accessories/?rss=1",
		"Electronics":              "https://www.dealnews.com/c142/Electronics/?rss=1",
		"Health & Beauty":          "https://www.dealnews.com/c756/Health-Beauty/?rss=1",
		"Computers":                "https://www.dealnews.com/c39/Computers/?rss=1",
		"Sports & Fitness":         "https://www.dealnews.com/c211/Sports-Fitness/?rss=1",
		"Gaming & Toys":            "https://www.dealnews.com/c186/Gaming-Toys/?rss=1",
		"Automotive":               "https://www.dealnews.com/c238/Automotive/?rss=1",
		"Movies, Music & Books":    "https://www.dealnews.com/c178/Movies-Music-Books/?rss=1",
		"Office & School Supplies": "https://www.dealnews.com/c182/Office-School-Supplies/?rss=1",
		"Special Occasion":         "https://www.dealnews.com/c636/Special-Occasion/?rss=1",
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later config files override earlier ones.
func LoadFromFiles(logger arbor.ILogger, paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		if logger != nil {
			logger.Debug().Str("path", path).Msg("Configuration file loaded")
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies DEALSENSE_* environment variable overrides
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("DEALSENSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("DEALSENSE_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("DEALSENSE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("DEALSENSE_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if len(c.Pipeline.Feeds) == 0 {
		return fmt.Errorf("pipeline requires at least one category feed")
	}

	if c.Scheduler.Enabled && len(c.Scheduler.Categories) == 0 {
		return fmt.Errorf("scheduler is enabled but no categories are configured")
	}

	return nil
}

// CategoryNames returns the configured category names in sorted order
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Pipeline.Feeds))
	for name := range c.Pipeline.Feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
