package config

import (
	"net"

	"github.com/pkg/errors"
)

var nodeDBTypes = map[string]bool{
	"pebble":  true,
	"leveldb": true,
	"memory":  true,
}

var compressionTypes = map[string]bool{
	"none": true,
	"lz4":  true,
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var logFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// ValidateConfig performs validation on the complete configuration.
func ValidateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return errors.Wrap(err, "server config validation failed")
	}
	if err := validateNodeDBConfig(&config.NodeDB); err != nil {
		return errors.Wrap(err, "node_db validation failed")
	}
	if err := validateHistoryConfig(&config.History); err != nil {
		return errors.Wrap(err, "history validation failed")
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return errors.Wrap(err, "log validation failed")
	}
	return nil
}

func validateServerConfig(server *ServerConfig) error {
	if server.ListenAddr == "" {
		return errors.New("listen_addr cannot be empty")
	}
	if _, _, err := net.SplitHostPort(server.ListenAddr); err != nil {
		return errors.Wrapf(err, "invalid listen_addr %q", server.ListenAddr)
	}
	if server.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	return nil
}

func validateNodeDBConfig(nodeDB *NodeDBConfig) error {
	if !nodeDBTypes[nodeDB.Type] {
		return errors.Errorf("unknown node_db type: %s", nodeDB.Type)
	}
	if nodeDB.Type != "memory" && nodeDB.Path == "" {
		return errors.Errorf("node_db path required for type %s", nodeDB.Type)
	}
	if nodeDB.CacheSize < 0 {
		return errors.New("cache_size cannot be negative")
	}
	if nodeDB.Compression != "" && !compressionTypes[nodeDB.Compression] {
		return errors.Errorf("unknown compression: %s", nodeDB.Compression)
	}
	return nil
}

func validateHistoryConfig(history *HistoryConfig) error {
	if history.Path == "" {
		return errors.New("history path cannot be empty")
	}
	return nil
}

func validateLogConfig(log *LogConfig) error {
	if !logLevels[log.Level] {
		return errors.Errorf("unknown log level: %s", log.Level)
	}
	if !logFormats[log.Format] {
		return errors.Errorf("unknown log format: %s", log.Format)
	}
	return nil
}
