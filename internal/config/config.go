package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Configuration represents the complete archivefs configuration
type Configuration struct {
	Global  GlobalConfig  `yaml:"global"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// CacheConfig represents content cache configuration. Sizes are human-readable
// strings ("1MB", "64MB") parsed with ParseSize.
type CacheConfig struct {
	// MaxFileSize is the per-file ceiling: files larger than this are
	// streamed straight from the archive and never cached.
	MaxFileSize string `yaml:"max_file_size"`

	// MaxTotalSize bounds the cumulative weight of all cached buffers.
	MaxTotalSize string `yaml:"max_total_size"`

	// TTL is the idle expiry: an entry not accessed for this long is
	// dropped on the next cache operation that touches it.
	TTL time.Duration `yaml:"ttl"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// NewDefault returns a configuration with sensible defaults. The cache bounds
// mirror the sizing the mount was designed around: cache individual files up
// to 1MiB, cap the shared cache at 64MiB, expire entries idle for a minute.
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel: "INFO",
		},
		Cache: CacheConfig{
			MaxFileSize:  "1MB",
			MaxTotalSize: "64MB",
			TTL:          60 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Addr:      ":8080",
			Path:      "/metrics",
			Namespace: "archivefs",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration overrides from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("ARCHIVEFS_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("ARCHIVEFS_CACHE_MAX_FILE_SIZE"); val != "" {
		c.Cache.MaxFileSize = val
	}
	if val := os.Getenv("ARCHIVEFS_CACHE_MAX_TOTAL_SIZE"); val != "" {
		c.Cache.MaxTotalSize = val
	}
	if val := os.Getenv("ARCHIVEFS_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Cache.TTL = duration
		}
	}
	if val := os.Getenv("ARCHIVEFS_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("ARCHIVEFS_METRICS_ADDR"); val != "" {
		c.Metrics.Addr = val
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	maxFile, err := ParseSize(c.Cache.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid cache.max_file_size: %w", err)
	}
	maxTotal, err := ParseSize(c.Cache.MaxTotalSize)
	if err != nil {
		return fmt.Errorf("invalid cache.max_total_size: %w", err)
	}
	if maxFile <= 0 {
		return fmt.Errorf("cache.max_file_size must be greater than 0")
	}
	if maxTotal < maxFile {
		return fmt.Errorf("cache.max_total_size (%s) must be at least cache.max_file_size (%s)",
			c.Cache.MaxTotalSize, c.Cache.MaxFileSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if strings.ToUpper(c.Global.LogLevel) == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// MaxFileBytes returns the parsed per-file cache ceiling in bytes.
func (c *Configuration) MaxFileBytes() int64 {
	size, err := ParseSize(c.Cache.MaxFileSize)
	if err != nil {
		return 0
	}
	return size
}

// MaxTotalBytes returns the parsed total cache capacity in bytes.
func (c *Configuration) MaxTotalBytes() int64 {
	size, err := ParseSize(c.Cache.MaxTotalSize)
	if err != nil {
		return 0
	}
	return size
}

// ParseSize parses a human-readable size string ("512KB", "1MB", "2GB") into
// bytes. Plain numbers are interpreted as bytes.
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(strings.ToUpper(sizeStr))
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	multipliers := []struct {
		suffix string
		factor int64
	}{
		{"TB", 1 << 40},
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}

	for _, m := range multipliers {
		if strings.HasSuffix(sizeStr, m.suffix) {
			numStr := strings.TrimSuffix(sizeStr, m.suffix)
			num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
			}
			return int64(num * float64(m.factor)), nil
		}
	}

	num, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}
	return num, nil
}
