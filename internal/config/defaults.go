package config

import "github.com/spf13/viper"

// setDefaults sets all default values for a standalone deployment.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_addr", "127.0.0.1:5005")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Node store defaults
	v.SetDefault("node_db.type", "pebble")
	v.SetDefault("node_db.path", "data/nodestore")
	v.SetDefault("node_db.cache_size", 16384)
	v.SetDefault("node_db.cache_age", "1h")
	v.SetDefault("node_db.compression", "lz4")
	v.SetDefault("node_db.compression_level", 1)

	// History defaults
	v.SetDefault("history.path", "data/history.db")

	// Genesis defaults
	v.SetDefault("genesis_file", "")

	// Standalone is the only supported mode today
	v.SetDefault("standalone", true)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.debug_file", "")
	v.SetDefault("log.stacktrace", false)
}
