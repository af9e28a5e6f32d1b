package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
}

// Source types
const (
	SourceCSVURL  = "csv_url"
	SourceCSVFile = "csv_file"
)

// SourceConfig describes where production data is read from
type SourceConfig struct {
	Type       string        `mapstructure:"type"`        // csv_url or csv_file
	URL        string        `mapstructure:"url"`         // Published sheet CSV URL
	Path       string        `mapstructure:"path"`        // Local CSV file
	DateColumn string        `mapstructure:"date_column"` // Header of the date column (default: Date)
	Timeout    time.Duration `mapstructure:"timeout"`     // HTTP fetch timeout
}

// CacheConfig represents dataset cache configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"`        // memory (default), redis, none
	URL        string        `mapstructure:"url"`         // redis://host:6379/0
	TTL        time.Duration `mapstructure:"ttl"`         // How long a fetched dataset stays fresh
	MaxEntries int           `mapstructure:"max_entries"` // LRU capacity for the memory cache
	Compress   bool          `mapstructure:"compress"`    // Snappy-compress cached payloads
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// QueueConfig represents message queue configuration for analysis events
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: none (default), memory, nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject/stream/topic for AnalysisCompleted events

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "orelens")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// AnalysisConfig holds the server-side defaults for analysis parameters.
// Request parameters override these field by field.
type AnalysisConfig struct {
	IQRK           float64 `mapstructure:"iqr_k"`
	ZThresh        float64 `mapstructure:"z_thresh"`
	MAWindow       int     `mapstructure:"ma_window"`
	MAPct          float64 `mapstructure:"ma_pct"`
	GrubbsAlpha    float64 `mapstructure:"grubbs_alpha"`
	TrendDegree    int     `mapstructure:"trend_degree"`
	MaxParallelism int     `mapstructure:"max_parallelism"` // Series analyzed concurrently (default: 4)
}

// MetricsConfig represents prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth config: api_keys is required when auth is enabled")
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	return nil
}

// Validate validates source configuration
func (c *SourceConfig) Validate() error {
	switch c.Type {
	case SourceCSVURL:
		// The URL may be supplied later through ORELENS_SOURCE_URL; an empty
		// URL only fails when data is actually fetched.
	case SourceCSVFile:
		if c.Path == "" {
			return fmt.Errorf("source.path is required for csv_file")
		}
	default:
		return fmt.Errorf("source.type must be 'csv_url' or 'csv_file'")
	}

	if c.DateColumn == "" {
		return fmt.Errorf("source.date_column is required")
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	switch c.Type {
	case "memory":
		if c.MaxEntries <= 0 {
			return fmt.Errorf("cache.max_entries must be positive")
		}
	case "redis":
		if c.URL == "" {
			return fmt.Errorf("cache.url is required for redis")
		}
	case "none", "":
		return nil
	default:
		return fmt.Errorf("cache.type must be one of: memory, redis, none")
	}

	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "none", "memory":
		return nil
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: none, memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// Validate checks only what the config layer owns; parameter domains are
// enforced by the engine when defaults and request overrides are merged.
func (c *AnalysisConfig) Validate() error {
	if c.MaxParallelism < 1 {
		return fmt.Errorf("analysis.max_parallelism must be at least 1")
	}
	return nil
}
