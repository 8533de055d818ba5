package config

import (
	"path/filepath"
	"time"
)

// Config represents the complete marketd configuration.
// This mirrors the structure of marketd.toml.
type Config struct {
	// Server section
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Node store (ledger entry and header persistence)
	NodeDB NodeDBConfig `toml:"node_db" mapstructure:"node_db"`

	// Transaction history (relational store for account_tx queries)
	History HistoryConfig `toml:"history" mapstructure:"history"`

	// Genesis file path (JSON format)
	// If empty, uses the built-in default genesis configuration
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	// Standalone mode: ledgers close on ledger_accept rather than
	// on a consensus timer
	Standalone bool `toml:"standalone" mapstructure:"standalone"`

	// Logging section
	Log LogConfig `toml:"log" mapstructure:"log"`

	// Internal field for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the JSON-RPC server settings.
type ServerConfig struct {
	ListenAddr     string        `toml:"listen_addr" mapstructure:"listen_addr"`
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
}

// NodeDBConfig holds the node store settings.
type NodeDBConfig struct {
	Type             string        `toml:"type" mapstructure:"type"`
	Path             string        `toml:"path" mapstructure:"path"`
	CacheSize        int           `toml:"cache_size" mapstructure:"cache_size"`
	CacheAge         time.Duration `toml:"cache_age" mapstructure:"cache_age"`
	Compression      string        `toml:"compression" mapstructure:"compression"`
	CompressionLevel int           `toml:"compression_level" mapstructure:"compression_level"`
}

// HistoryConfig holds the transaction history settings.
type HistoryConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	DebugFile  string `toml:"debug_file" mapstructure:"debug_file"`
	Stacktrace bool   `toml:"stacktrace" mapstructure:"stacktrace"`
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return "marketd.toml"
}

// ConfigPathFromDir returns the configuration path for a specific directory.
func ConfigPathFromDir(configDir string) string {
	return filepath.Join(configDir, "marketd.toml")
}

// GetConfigPath returns the path the configuration was loaded from, or an
// empty string when it was built from defaults alone.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
