package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the relay reads
const EnvPrefix = "TWEETRELAY_"

// Config holds all configuration options for the tweet relay
type Config struct {
	// HTTP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Stream relay behaviour
	Relay RelayConfig `yaml:"relay" json:"relay"`

	// External scraper settings
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Cookie adapter settings
	Cookies CookieConfig `yaml:"cookies" json:"cookies"`

	// Export settings for the fetch and media commands
	Export ExportConfig `yaml:"export" json:"export"`

	// Image download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry policy for downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Error reporting
	Sentry SentryConfig `yaml:"sentry" json:"sentry"`

	// Prometheus metrics
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ServeUI         bool          `yaml:"serve_ui" json:"serve_ui"`
}

// RelayConfig controls the stream relay
type RelayConfig struct {
	// ProgressInterval emits a progress event every N relayed tweets
	ProgressInterval int `yaml:"progress_interval" json:"progress_interval"`
	// DefaultMaxTweets applies when a request omits maxTweets
	DefaultMaxTweets int `yaml:"default_max_tweets" json:"default_max_tweets"`
	// MaxTweetsLimit caps any requested maximum
	MaxTweetsLimit int  `yaml:"max_tweets_limit" json:"max_tweets_limit"`
	VerifyLogin    bool `yaml:"verify_login" json:"verify_login"`
}

// ScraperConfig holds settings passed to the external scraper
type ScraperConfig struct {
	// Delay between upstream page requests, in seconds
	Delay      int64  `yaml:"delay" json:"delay"`
	SearchMode string `yaml:"search_mode" json:"search_mode"`
}

// CookieConfig holds cookie adapter settings
type CookieConfig struct {
	RewriteDomain bool   `yaml:"rewrite_domain" json:"rewrite_domain"`
	File          string `yaml:"file" json:"file"`
}

// ExportConfig holds output settings for exported JSON files
type ExportConfig struct {
	Directory         string `yaml:"directory" json:"directory"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// DownloadConfig holds image download settings
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize           int           `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry settings
type RetryConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// SentryConfig holds error reporting settings. An empty DSN disables reporting.
type SentryConfig struct {
	DSN         string `yaml:"dsn" json:"dsn"`
	Environment string `yaml:"environment" json:"environment"`
}

// MetricsConfig holds Prometheus exposure settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3001",
			AllowedOrigins:  []string{"*"},
			MaxBodyBytes:    50 << 20,
			ReadTimeout:     30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			ServeUI:         true,
		},
		Relay: RelayConfig{
			ProgressInterval: 10,
			DefaultMaxTweets: 200,
			MaxTweetsLimit:   10000,
			VerifyLogin:      false,
		},
		Scraper: ScraperConfig{
			Delay:      0,
			SearchMode: "latest",
		},
		Cookies: CookieConfig{
			RewriteDomain: true,
		},
		Export: ExportConfig{
			Directory:         ".",
			OverwriteExisting: true,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			RequestsPerMinute:   120,
			BurstSize:           5,
		},
		Retry: RetryConfig{
			Enabled:           true,
			MaxAttempts:       3,
			BaseDelay:         time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := getenv("ADDR"); v != "" {
		c.Server.Addr = v
	}
	// PORT mirrors the convention used by most hosting platforms
	if v := getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	if v := getenv("PROGRESS_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPROGRESS_INTERVAL: %w", EnvPrefix, err))
		} else {
			c.Relay.ProgressInterval = n
		}
	}
	if v := getenv("DEFAULT_MAX_TWEETS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEFAULT_MAX_TWEETS: %w", EnvPrefix, err))
		} else {
			c.Relay.DefaultMaxTweets = n
		}
	}
	if v := getenv("MAX_TWEETS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_TWEETS_LIMIT: %w", EnvPrefix, err))
		} else {
			c.Relay.MaxTweetsLimit = n
		}
	}
	if v := getenv("VERIFY_LOGIN"); v != "" {
		c.Relay.VerifyLogin = parseBool(v)
	}

	if v := getenv("REWRITE_COOKIE_DOMAIN"); v != "" {
		c.Cookies.RewriteDomain = parseBool(v)
	}
	if v := getenv("COOKIES_FILE"); v != "" {
		c.Cookies.File = v
	}

	if v := getenv("EXPORT_DIR"); v != "" {
		c.Export.Directory = v
	}
	if v := getenv("CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCONCURRENT_DOWNLOADS: %w", EnvPrefix, err))
		} else {
			c.Download.ConcurrentDownloads = n
		}
	}

	if v := getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
	if v := getenv("SENTRY_ENVIRONMENT"); v != "" {
		c.Sentry.Environment = v
	}
	if v := getenv("METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = parseBool(v)
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tweetrelay.yaml",
		".tweetrelay.yml",
		filepath.Join(home, ".config", "tweetrelay", "config.yaml"),
		filepath.Join(home, ".config", "tweetrelay", "config.yml"),
		filepath.Join(home, ".tweetrelay.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultPath returns the user-level config location written by `config init`
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "tweetrelay", "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}

	if c.Relay.ProgressInterval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}
	if c.Relay.DefaultMaxTweets <= 0 {
		errs = append(errs, errors.New("default max tweets must be positive"))
	}
	if c.Relay.MaxTweetsLimit < c.Relay.DefaultMaxTweets {
		errs = append(errs, errors.New("max tweets limit cannot be lower than the default max tweets"))
	}

	switch strings.ToLower(c.Scraper.SearchMode) {
	case "latest", "top", "photos", "videos", "users":
	default:
		errs = append(errs, fmt.Errorf("invalid search mode %q", c.Scraper.SearchMode))
	}
	if c.Scraper.Delay < 0 {
		errs = append(errs, errors.New("scraper delay cannot be negative"))
	}

	if c.Export.Directory == "" {
		errs = append(errs, errors.New("export directory is required"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Download.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			errs = append(errs, errors.New("retry max attempts must be positive"))
		}
		if c.Retry.BackoffMultiplier < 1 {
			errs = append(errs, errors.New("retry backoff multiplier must be at least 1"))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics path must start with /"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only non-zero values override.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if interval, ok := flags["progress-interval"].(int); ok && interval > 0 {
		c.Relay.ProgressInterval = interval
	}
	if max, ok := flags["default-max"].(int); ok && max > 0 {
		c.Relay.DefaultMaxTweets = max
	}
	if verify, ok := flags["verify-login"].(bool); ok && verify {
		c.Relay.VerifyLogin = true
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Export.Directory = output
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if cookies, ok := flags["cookies"].(string); ok && cookies != "" {
		c.Cookies.File = cookies
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetrelay.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
