package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/config"
)

func TestBuildLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := buildLogger(&config.LogConfig{Level: level, Format: "console"})
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}

	logger, err := buildLogger(&config.LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestBuildLoggerInvalidLevel(t *testing.T) {
	_, err := buildLogger(&config.LogConfig{Level: "verbose", Format: "console"})
	assert.Error(t, err)
}
