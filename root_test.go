package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkarvinen/bdaymirror/internal/config"
)

// withFlags saves and restores the package-level flag and config state
// around a test body.
func withFlags(t *testing.T) {
	t.Helper()

	oldCfg := loadedCfg
	oldConfig := flagConfigPath
	oldVerbose := flagVerbose
	oldQuiet := flagQuiet

	t.Cleanup(func() {
		loadedCfg = oldCfg
		flagConfigPath = oldConfig
		flagVerbose = oldVerbose
		flagQuiet = oldQuiet
	})
}

func TestBuildLogger_ConfigLevel(t *testing.T) {
	withFlags(t)

	flagVerbose = false
	flagQuiet = false
	loadedCfg = config.DefaultConfig()
	loadedCfg.Logging.LogLevel = "warn"

	logger := buildLogger()

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
}

func TestBuildLogger_VerboseWins(t *testing.T) {
	withFlags(t)

	flagVerbose = true
	flagQuiet = false
	loadedCfg = config.DefaultConfig()
	loadedCfg.Logging.LogLevel = "error"

	logger := buildLogger()

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_QuietWins(t *testing.T) {
	withFlags(t)

	flagVerbose = false
	flagQuiet = true
	loadedCfg = config.DefaultConfig()

	logger := buildLogger()

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestBuildLogger_NilConfigDefaultsToInfo(t *testing.T) {
	withFlags(t)

	flagVerbose = false
	flagQuiet = false
	loadedCfg = nil

	logger := buildLogger()

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
}
