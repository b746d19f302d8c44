package main

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elupus/fjaraskupan-go/pkg/config"
)

func TestConfigureLogger(t *testing.T) {
	// GOAL: Verify the CLI logger comes from the config with the requested level
	//
	// TEST SCENARIO: Configure debug level → logger at debug with RFC3339
	// text formatting

	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"

	logger, err := configureLogger(cfg)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok, "logger MUST use the text formatter")
	assert.True(t, formatter.FullTimestamp)
	assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
}

func TestConfigureLogger_InvalidLevel(t *testing.T) {
	// GOAL: Verify an unknown log level is rejected with a helpful message
	//
	// TEST SCENARIO: Configure a bogus level → error names the valid levels

	cfg := config.DefaultConfig()
	cfg.LogLevel = "verbose"

	_, err := configureLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
