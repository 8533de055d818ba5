package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (marketd.toml), when present
// 3. Environment variables (MARKETD_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	loaded, err := loadConfigFile(v, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if loaded {
		config.configPath = path
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &config, nil
}

// loadConfigFile reads the config file into viper. A missing file is not an
// error unless the path was explicitly supplied by the caller.
func loadConfigFile(v *viper.Viper, path string) (bool, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return false, errors.Errorf("config file does not exist: %s", path)
		}
		return false, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return false, errors.Wrapf(err, "failed to read config file %s", path)
	}

	return true, nil
}

// LoadDefaultConfig loads configuration from the default location, falling
// back to built-in defaults when no file exists.
func LoadDefaultConfig() (*Config, error) {
	return LoadConfig("")
}
