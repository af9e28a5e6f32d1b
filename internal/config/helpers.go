package config

import (
	"net"
	"strconv"
	"strings"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// SourceLocation returns the URL or path the configured source reads from
func (c *SourceConfig) SourceLocation() string {
	if c.Type == SourceCSVFile {
		return c.Path
	}
	return c.URL
}

// CacheEnabled reports whether fetched datasets are cached
func (c *CacheConfig) CacheEnabled() bool {
	t := strings.ToLower(c.Type)
	return t != "" && t != "none"
}
