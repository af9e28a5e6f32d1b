package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ORELENS_SOURCE_URL
const EnvPrefix = "ORELENS"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")            // Current directory
		v.AddConfigPath("./configs")    // Project configs directory
		v.AddConfigPath("./config")     // Alternative config directory
		v.AddConfigPath("/etc/orelens") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides; nested keys use underscores
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	// Source defaults
	v.SetDefault("source.type", d.Source.Type)
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.path", d.Source.Path)
	v.SetDefault("source.date_column", d.Source.DateColumn)
	v.SetDefault("source.timeout", d.Source.Timeout)

	// Cache defaults
	v.SetDefault("cache.type", d.Cache.Type)
	v.SetDefault("cache.url", d.Cache.URL)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("cache.compress", d.Cache.Compress)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)

	// Auth defaults
	v.SetDefault("auth.enabled", d.Auth.Enabled)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)

	// Analysis defaults
	v.SetDefault("analysis.iqr_k", d.Analysis.IQRK)
	v.SetDefault("analysis.z_thresh", d.Analysis.ZThresh)
	v.SetDefault("analysis.ma_window", d.Analysis.MAWindow)
	v.SetDefault("analysis.ma_pct", d.Analysis.MAPct)
	v.SetDefault("analysis.grubbs_alpha", d.Analysis.GrubbsAlpha)
	v.SetDefault("analysis.trend_degree", d.Analysis.TrendDegree)
	v.SetDefault("analysis.max_parallelism", d.Analysis.MaxParallelism)

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5555,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			BodyLimit:    16 * 1024 * 1024,
		},
		Source: SourceConfig{
			Type:       SourceCSVURL,
			DateColumn: "Date",
			Timeout:    15 * time.Second,
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTL:        5 * time.Minute,
			MaxEntries: 64,
			Compress:   true,
			KeyPrefix:  "orelens:",
		},
		Queue: QueueConfig{
			Type:        "none",
			Subject:     "orelens.analysis.completed",
			RedisStream: "orelens",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Analysis: AnalysisConfig{
			IQRK:           1.5,
			ZThresh:        3.0,
			MAWindow:       7,
			MAPct:          0.3,
			GrubbsAlpha:    0.05,
			TrendDegree:    1,
			MaxParallelism: 4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
