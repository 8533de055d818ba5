package nodestore

import (
	"time"

	"github.com/pkg/errors"
)

// Config holds configuration options for the nodestore.
type Config struct {
	// Backend specifies the storage backend to use
	Backend string `json:"backend" mapstructure:"backend"`

	// Path specifies the file system path for data storage
	Path string `json:"path" mapstructure:"path"`

	// Cache configuration
	CacheSize int           `json:"cache_size" mapstructure:"cache_size"`
	CacheTTL  time.Duration `json:"cache_ttl" mapstructure:"cache_ttl"`

	// Compression configuration
	Compressor       string `json:"compressor" mapstructure:"compressor"`
	CompressionLevel int    `json:"compression_level" mapstructure:"compression_level"`

	// CreateIfMissing controls whether a missing database is created on open
	CreateIfMissing bool `json:"create_if_missing" mapstructure:"create_if_missing"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:          "pebble",
		Path:             "./nodestore",
		CacheSize:        2000,
		CacheTTL:         time.Hour,
		Compressor:       "lz4",
		CompressionLevel: 1,
		CreateIfMissing:  true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return errors.Wrap(ErrInvalidConfig, "backend must be specified")
	}
	if !IsBackendAvailable(c.Backend) {
		return errors.Wrapf(ErrInvalidConfig, "unknown backend: %s", c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "path must be specified")
	}
	if c.CacheSize < 0 {
		return errors.Wrap(ErrInvalidConfig, "cache_size must be non-negative")
	}
	if c.CacheTTL < 0 {
		return errors.Wrap(ErrInvalidConfig, "cache_ttl must be non-negative")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return errors.Wrap(ErrInvalidConfig, "compression_level must be between 0 and 9")
	}

	switch c.Compressor {
	case "none", "lz4":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unsupported compressor: %s", c.Compressor)
	}

	return nil
}

// Option is a functional option for configuring the nodestore.
type Option func(*Config)

// WithPath sets the storage path.
func WithPath(path string) Option {
	return func(c *Config) {
		c.Path = path
	}
}

// WithBackend sets the storage backend.
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithCacheSize sets the cache size in items.
func WithCacheSize(size int) Option {
	return func(c *Config) {
		c.CacheSize = size
	}
}

// WithCacheTTL sets the cache time-to-live duration.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithCompression sets the compression algorithm and level.
func WithCompression(compressor string, level int) Option {
	return func(c *Config) {
		c.Compressor = compressor
		c.CompressionLevel = level
	}
}

// ApplyOptions applies the given options to the config.
func (c *Config) ApplyOptions(options ...Option) {
	for _, option := range options {
		option(c)
	}
}
