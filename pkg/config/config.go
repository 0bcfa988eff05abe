package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the image search endpoint queried for result pages
	DefaultBaseURL = "http://www.google.com/search"

	// DefaultUserAgent is sent with every result page request
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_8_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/27.0.1453.116 Safari/537.36"

	// DefaultPagesToQuery is the number of result pages harvested per query
	DefaultPagesToQuery = 6

	// DefaultIndexFileName is the cache file written inside each query directory
	DefaultIndexFileName = "_search_results.json"
)

// Config holds all configuration options for the image search downloader
type Config struct {
	// Search engine settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds settings for fetching result pages
type SearchConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	PagesToQuery   int           `yaml:"pages_to_query" json:"pages_to_query"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	IndexFileName string `yaml:"index_file_name" json:"index_file_name"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// ConcurrentDownloads of 0 means one worker per CPU
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:        DefaultBaseURL,
			UserAgent:      DefaultUserAgent,
			PagesToQuery:   DefaultPagesToQuery,
			RequestTimeout: 0,
		},
		Output: OutputConfig{
			BaseDirectory: "./images",
			IndexFileName: DefaultIndexFileName,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 20,
			DownloadTimeout:     0, // 0 means no timeout
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("IMGSEARCH_BASE_URL"); baseURL != "" {
		c.Search.BaseURL = baseURL
	}
	if userAgent := os.Getenv("IMGSEARCH_USER_AGENT"); userAgent != "" {
		c.Search.UserAgent = userAgent
	}

	if pages := os.Getenv("IMGSEARCH_PAGES_TO_QUERY"); pages != "" {
		var val int
		fmt.Sscanf(pages, "%d", &val)
		if val > 0 {
			c.Search.PagesToQuery = val
		}
	}

	if outputDir := os.Getenv("IMGSEARCH_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if concurrent := os.Getenv("IMGSEARCH_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if timeout := os.Getenv("IMGSEARCH_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid IMGSEARCH_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.DownloadTimeout = d
	}

	if logLevel := os.Getenv("IMGSEARCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("IMGSEARCH_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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
	locations := []string{
		".imgsearch.yaml",
		".imgsearch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "imgsearch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "imgsearch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".imgsearch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search base URL is required"))
	}
	if c.Search.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Search.PagesToQuery <= 0 {
		errs = append(errs, errors.New("pages to query must be positive"))
	}
	if c.Search.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}

	if c.Download.ConcurrentDownloads < 0 {
		errs = append(errs, errors.New("concurrent downloads cannot be negative"))
	}
	if c.Download.DownloadTimeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.IndexFileName == "" || strings.ContainsAny(c.Output.IndexFileName, `/\`) {
		errs = append(errs, errors.New("index file name must be a plain file name"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent-downloads"].(int); ok && concurrent >= 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if pages, ok := flags["pages"].(int); ok && pages > 0 {
		c.Search.PagesToQuery = pages
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Search.BaseURL = baseURL
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imgsearch.env"))

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
